// internal/domain/records.go
package domain

import "net/http"

// DispatchOutcome is the result of publishing one work item.
type DispatchOutcome string

const (
	DispatchSent   DispatchOutcome = "sent"
	DispatchFailed DispatchOutcome = "failed"
)

// DispatchRecord is produced once per work item per dispatch attempt.
type DispatchRecord struct {
	WorkID    int             `json:"workId"`
	MessageID string          `json:"messageId"`
	Type      WorkType        `json:"type"`
	Outcome   DispatchOutcome `json:"outcome"`
}

// ProcessingOutcome is the result of processing one received message.
type ProcessingOutcome string

const (
	ProcessingSuccess ProcessingOutcome = "success"
	ProcessingError   ProcessingOutcome = "error"
)

// ProcessingRecord is produced once per received message.
type ProcessingRecord struct {
	WorkID    *int              `json:"workId"` // nil when the body could not be decoded
	MessageID string            `json:"messageId"`
	Type      WorkType          `json:"type"`
	Status    ProcessingOutcome `json:"status"`
	Error     string            `json:"error,omitempty"`
}

// BatchResult aggregates the records of one consumer invocation.
type BatchResult struct {
	Total          int                `json:"totalMessages"`
	SucceededCount int                `json:"successfulMessages"`
	FailedCount    int                `json:"failedMessages"`
	Succeeded      []ProcessingRecord `json:"processedItems"`
	Failed         []ProcessingRecord `json:"failedItems"`
}

// NewBatchResult partitions records, preserving their order.
func NewBatchResult(records []ProcessingRecord) BatchResult {
	result := BatchResult{
		Total:     len(records),
		Succeeded: []ProcessingRecord{},
		Failed:    []ProcessingRecord{},
	}
	for _, rec := range records {
		if rec.Status == ProcessingSuccess {
			result.Succeeded = append(result.Succeeded, rec)
		} else {
			result.Failed = append(result.Failed, rec)
		}
	}
	result.SucceededCount = len(result.Succeeded)
	result.FailedCount = len(result.Failed)
	return result
}

// StatusCode is 207 when any item failed and 200 otherwise.
func (r BatchResult) StatusCode() int {
	if r.FailedCount > 0 {
		return http.StatusMultiStatus
	}
	return http.StatusOK
}
