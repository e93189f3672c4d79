package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/infra/memqueue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerSuccess(t *testing.T) {
	q := memqueue.New()
	sink := &recordingSink{}
	h := NewHandler(New(q, discardLogger()),
		func(context.Context) (domain.MetricsSink, error) { return sink, nil },
		HandlerConfig{QueueID: queueID, Environment: "dev"},
		discardLogger())

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"source":"aws.events"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dev", resp.Environment)
	assert.True(t, resp.CronJob.Success)
	assert.Nil(t, resp.CronJob.Error)
	require.NotNil(t, resp.CronJob.ProcessedData)
	assert.Len(t, resp.CronJob.ProcessedData.MessagesSent, 5)

	names := sink.measurements()
	assert.Equal(t, "cron_job_execution", names[0])
	assert.Equal(t, "cron_job_execution", names[len(names)-1])
	assert.Equal(t, "completed", sink.points[len(names)-1].Tags["status"])
	assert.Equal(t, 1, sink.flushed)
	assert.True(t, sink.closed)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"error":null`)
}

func TestHandlerSingleItemScenario(t *testing.T) {
	q := memqueue.New()
	h := NewHandler(New(q, discardLogger()), nil, HandlerConfig{
		QueueID: queueID,
		Items:   []domain.WorkItem{{ID: 1, Type: domain.WorkTypeDataCleanup, Payload: domain.Payload{"table": "old_logs", "days": 30}}},
	}, discardLogger())

	resp, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, resp.CronJob.ProcessedData.MessagesSent, 1)
	assert.Len(t, q.Peek(queueID), 1)
}

func TestHandlerSetupFailure(t *testing.T) {
	q := memqueue.New()
	h := NewHandler(New(q, discardLogger()),
		func(context.Context) (domain.MetricsSink, error) { return nil, domain.ErrSecretUnavailable },
		HandlerConfig{QueueID: queueID},
		discardLogger())

	resp, err := h.Handle(context.Background(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrSecretUnavailable)
	assert.Empty(t, q.Peek(queueID), "nothing is published when setup fails")
}

func TestHandlerPublishFailurePropagates(t *testing.T) {
	sink := &recordingSink{}
	pub := &failingPublisher{inner: memqueue.New(), failOn: 3}
	h := NewHandler(New(pub, discardLogger()),
		func(context.Context) (domain.MetricsSink, error) { return sink, nil },
		HandlerConfig{QueueID: queueID},
		discardLogger())

	resp, err := h.Handle(context.Background(), nil)
	assert.Nil(t, resp)
	require.Error(t, err)

	var itemErr *domain.ItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, 3, itemErr.WorkID)

	last := sink.points[len(sink.points)-1]
	assert.Equal(t, "error", last.Tags["status"])
	assert.Equal(t, 2, last.Fields["messages_sent"])
	assert.True(t, sink.closed)
}
