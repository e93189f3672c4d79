package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchResultPartitionsInOrder(t *testing.T) {
	one, three := 1, 3
	records := []ProcessingRecord{
		{WorkID: &one, MessageID: "a", Type: WorkTypeBackupTask, Status: ProcessingSuccess},
		{MessageID: "b", Type: WorkTypeUnknown, Status: ProcessingError, Error: "failed to parse work item"},
		{WorkID: &three, MessageID: "c", Type: WorkTypeDataCleanup, Status: ProcessingSuccess},
	}

	result := NewBatchResult(records)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.SucceededCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, "a", result.Succeeded[0].MessageID)
	assert.Equal(t, "c", result.Succeeded[1].MessageID)
	assert.Equal(t, http.StatusMultiStatus, result.StatusCode())
}

func TestBatchResultJSON(t *testing.T) {
	body, err := json.Marshal(NewBatchResult(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalMessages":0,"successfulMessages":0,"failedMessages":0,"processedItems":[],"failedItems":[]}`, string(body))

	rec, err := json.Marshal(ProcessingRecord{MessageID: "m", Type: WorkTypeUnknown, Status: ProcessingError, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"workId":null,"messageId":"m","type":"unknown","status":"error","error":"boom"}`, string(rec))
}

func TestItemError(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", NewItemError(4, ErrUnknownWorkType))

	id, ok := ItemID(err)
	assert.True(t, ok)
	assert.Equal(t, 4, id)
	assert.ErrorIs(t, err, ErrUnknownWorkType)

	_, ok = ItemID(errors.New("plain"))
	assert.False(t, ok)
}
