// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts requests served by the scheduler API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// WorkItemsDispatchedTotal counts publish attempts by work type and outcome (sent/failed).
	WorkItemsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "work_items_dispatched_total",
			Help: "Total number of work items published to the queue.",
		},
		[]string{"work_type", "status"},
	)

	// WorkItemsProcessedTotal counts consumed messages by work type and outcome (success/error).
	WorkItemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "work_items_processed_total",
			Help: "Total number of queue messages processed by the worker.",
		},
		[]string{"work_type", "status"},
	)

	WorkerBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worker_batch_duration_seconds",
			Help:    "Wall time spent processing one message batch.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PipelineStageTotal counts step pipeline stage runs.
	PipelineStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_total",
			Help: "Total number of step pipeline stage invocations.",
		},
		[]string{"stage", "outcome"},
	)

	// IsLeader marks whether this scheduler node currently fires triggers.
	IsLeader = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "is_leader",
			Help: "Is this node currently the leader. 1 if leader, 0 otherwise.",
		},
		[]string{"node_id"},
	)
)
