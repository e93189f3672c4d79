// internal/domain/work_item.go
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// WorkType tags a work item with the routine that processes it.
type WorkType string

const (
	WorkTypeDataProcessing    WorkType = "data_processing"
	WorkTypeEmailNotification WorkType = "email_notification"
	WorkTypeDataCleanup       WorkType = "data_cleanup"
	WorkTypeReportGeneration  WorkType = "report_generation"
	WorkTypeBackupTask        WorkType = "backup_task"

	// WorkTypeUnknown is only used for records whose body could not be decoded.
	WorkTypeUnknown WorkType = "unknown"
)

// AllWorkTypes lists every processable work type.
var AllWorkTypes = []WorkType{
	WorkTypeDataProcessing,
	WorkTypeEmailNotification,
	WorkTypeDataCleanup,
	WorkTypeReportGeneration,
	WorkTypeBackupTask,
}

// Known reports whether t is a member of the work type enumeration.
func (t WorkType) Known() bool {
	for _, known := range AllWorkTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Payload is the type-specific body of a work item.
type Payload map[string]any

// WorkItem is a unit of asynchronous work.
type WorkItem struct {
	ID      int      `json:"id"`
	Type    WorkType `json:"type"`
	Payload Payload  `json:"payload"`
}

// Validate checks that the item can be published.
func (w *WorkItem) Validate() error {
	if !w.Type.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownWorkType, w.Type)
	}
	if w.ID < 0 {
		return fmt.Errorf("work item id cannot be negative: %d", w.ID)
	}
	return nil
}

// Encode serializes the item into a queue message body.
func (w *WorkItem) Encode() ([]byte, error) {
	body, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal work item %d: %w", w.ID, err)
	}
	return body, nil
}

// DecodeWorkItem parses a queue message body. A body without a type is
// rejected; an unrecognised type is not, so the record keeps it.
func DecodeWorkItem(body []byte) (*WorkItem, error) {
	var item WorkItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to parse work item: %w", err)
	}
	if item.Type == "" {
		return nil, errors.New("failed to parse work item: missing type")
	}
	return &item, nil
}
