// Package memqueue is an in-process queue used for local runs and tests.
package memqueue

import (
	"context"
	"sync"

	"workqueue-lambdas/internal/domain"

	"github.com/google/uuid"
)

// Message is a stored message with the id assigned at publish time.
type Message struct {
	ID         string
	Body       []byte
	Attributes map[string]string
}

// Queue keeps one FIFO per queue id.
type Queue struct {
	mu     sync.Mutex
	queues map[string][]Message
}

func New() *Queue {
	return &Queue{queues: make(map[string][]Message)}
}

func (q *Queue) Publish(ctx context.Context, queueID string, msg domain.OutboundMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	attrs := make(map[string]string, len(msg.Attributes))
	for k, v := range msg.Attributes {
		attrs[k] = v
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[queueID] = append(q.queues[queueID], Message{ID: id, Body: append([]byte(nil), msg.Body...), Attributes: attrs})
	return id, nil
}

func (q *Queue) Receive(ctx context.Context, queueID string, limit int) ([]domain.ReceivedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.queues[queueID]
	if limit <= 0 || limit > len(pending) {
		limit = len(pending)
	}
	batch := make([]domain.ReceivedMessage, 0, limit)
	for _, m := range pending[:limit] {
		batch = append(batch, domain.ReceivedMessage{MessageID: m.ID, Body: m.Body})
	}
	q.queues[queueID] = pending[limit:]
	return batch, nil
}

// Peek returns a copy of the messages waiting on queueID.
func (q *Queue) Peek(queueID string) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.queues[queueID]...)
}
