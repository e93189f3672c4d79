// internal/infra/redisq/queue.go
package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// envelope is the list entry; Redis has no per-message metadata.
type envelope struct {
	ID         string            `json:"id"`
	Body       []byte            `json:"body"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Queue is a FIFO work queue on a Redis list: LPUSH to publish, BRPOP to
// receive.
type Queue struct {
	client   *redis.Client
	pollWait time.Duration
}

// NewQueue returns a Queue whose Receive blocks up to pollWait for the
// first message.
func NewQueue(client *redis.Client, pollWait time.Duration) *Queue {
	return &Queue{client: client, pollWait: pollWait}
}

// NewClient connects to addr and verifies the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (q *Queue) Publish(ctx context.Context, key string, msg domain.OutboundMessage) (string, error) {
	env := envelope{ID: uuid.NewString(), Body: msg.Body, Attributes: msg.Attributes}
	data, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	if err := q.client.LPush(ctx, key, data).Err(); err != nil {
		return "", fmt.Errorf("redis lpush %s: %w", key, err)
	}
	return env.ID, nil
}

// Receive returns up to limit messages. It waits for the first one and then
// takes whatever else is already queued. An empty slice means the wait
// elapsed.
func (q *Queue) Receive(ctx context.Context, key string, limit int) ([]domain.ReceivedMessage, error) {
	if limit <= 0 {
		limit = 1
	}

	res, err := q.client.BRPop(ctx, q.pollWait, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis brpop %s: %w", key, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP result: %v", res)
	}

	msgs := []domain.ReceivedMessage{decode(res[1])}
	for len(msgs) < limit {
		raw, err := q.client.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return msgs, fmt.Errorf("redis rpop %s: %w", key, err)
		}
		msgs = append(msgs, decode(raw))
	}
	return msgs, nil
}

// decode unwraps an envelope. Entries pushed by other producers are passed
// through as the raw body so the consumer records them.
func decode(raw string) domain.ReceivedMessage {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.ID == "" {
		return domain.ReceivedMessage{MessageID: uuid.NewString(), Body: []byte(raw)}
	}
	return domain.ReceivedMessage{MessageID: env.ID, Body: env.Body}
}
