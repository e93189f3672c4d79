package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/infra/memqueue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queueID = "https://sqs.test/work"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingPublisher delegates to a memqueue until failOn is reached.
type failingPublisher struct {
	inner  *memqueue.Queue
	failOn int
	calls  int
}

func (p *failingPublisher) Publish(ctx context.Context, q string, msg domain.OutboundMessage) (string, error) {
	p.calls++
	if p.calls == p.failOn {
		return "", errors.New("throttled")
	}
	return p.inner.Publish(ctx, q, msg)
}

type recordingSink struct {
	mu      sync.Mutex
	points  []domain.Point
	flushed int
	closed  bool
}

func (s *recordingSink) WritePoint(p domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
}

func (s *recordingSink) Flush(context.Context) { s.flushed++ }
func (s *recordingSink) Close()                { s.closed = true }

func (s *recordingSink) measurements() []string {
	names := make([]string, 0, len(s.points))
	for _, p := range s.points {
		names = append(names, p.Measurement)
	}
	return names
}

func TestDispatchPublishesEveryItemInOrder(t *testing.T) {
	q := memqueue.New()
	d := New(q, discardLogger())
	sink := &recordingSink{}

	records, err := d.Dispatch(context.Background(), queueID, DefaultBatch(), sink)
	require.NoError(t, err)
	require.Len(t, records, 5)

	published := q.Peek(queueID)
	require.Len(t, published, 5)
	for i, item := range DefaultBatch() {
		assert.Equal(t, item.ID, records[i].WorkID)
		assert.Equal(t, item.Type, records[i].Type)
		assert.Equal(t, domain.DispatchSent, records[i].Outcome)
		assert.Equal(t, published[i].ID, records[i].MessageID)

		assert.Equal(t, string(item.Type), published[i].Attributes[domain.AttrWorkType])
		assert.Equal(t, strconv.Itoa(item.ID), published[i].Attributes[domain.AttrWorkID])
	}
	assert.Equal(t, "1", published[0].Attributes[domain.AttrWorkID])
	assert.Equal(t, "5", published[4].Attributes[domain.AttrWorkID])
	assert.Len(t, sink.points, 5)
}

func TestDispatchAbortsOnFirstFailure(t *testing.T) {
	q := memqueue.New()
	pub := &failingPublisher{inner: q, failOn: 2}
	d := New(pub, discardLogger())

	records, err := d.Dispatch(context.Background(), queueID, DefaultBatch(), nil)
	require.Error(t, err)

	id, ok := domain.ItemID(err)
	require.True(t, ok)
	assert.Equal(t, 2, id)
	assert.Contains(t, err.Error(), "throttled")

	assert.Equal(t, 2, pub.calls, "no publish after the failing item")
	assert.Len(t, q.Peek(queueID), 1)
	require.Len(t, records, 2)
	assert.Equal(t, domain.DispatchSent, records[0].Outcome)
	assert.Equal(t, domain.DispatchFailed, records[1].Outcome)
	assert.Empty(t, records[1].MessageID)
}

func TestDispatchRejectsUnknownType(t *testing.T) {
	q := memqueue.New()
	d := New(q, discardLogger())
	items := []domain.WorkItem{
		{ID: 1, Type: domain.WorkTypeDataCleanup, Payload: domain.Payload{"table": "old_logs", "days": 30}},
		{ID: 2, Type: "teleport"},
		{ID: 3, Type: domain.WorkTypeBackupTask},
	}

	records, err := d.Dispatch(context.Background(), queueID, items, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownWorkType)
	assert.Len(t, records, 2)
	assert.Len(t, q.Peek(queueID), 1)
}

func TestDispatchRequiresQueue(t *testing.T) {
	d := New(memqueue.New(), discardLogger())

	_, err := d.Dispatch(context.Background(), "", DefaultBatch(), nil)
	assert.ErrorIs(t, err, domain.ErrMissingQueue)
}

func TestPublishedBodyRoundTrips(t *testing.T) {
	q := memqueue.New()
	d := New(q, discardLogger())

	_, err := d.Dispatch(context.Background(), queueID, DefaultBatch(), nil)
	require.NoError(t, err)

	for i, msg := range q.Peek(queueID) {
		want := DefaultBatch()[i]
		got, err := domain.DecodeWorkItem(msg.Body)
		require.NoError(t, err)

		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Type, got.Type)
		wantPayload, _ := json.Marshal(want.Payload)
		gotPayload, _ := json.Marshal(got.Payload)
		assert.JSONEq(t, string(wantPayload), string(gotPayload))
	}
}
