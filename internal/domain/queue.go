// internal/domain/queue.go
package domain

import "context"

// Message attribute names carried next to every published body.
const (
	AttrWorkType = "workType"
	AttrWorkID   = "workId"
)

// OutboundMessage is a serialized work item plus its string attributes.
type OutboundMessage struct {
	Body       []byte
	Attributes map[string]string
}

// ReceivedMessage is one element of a consumer batch.
type ReceivedMessage struct {
	MessageID string
	Body      []byte
}

// Publisher sends messages to a queue identified by queueID.
type Publisher interface {
	Publish(ctx context.Context, queueID string, msg OutboundMessage) (messageID string, err error)
}

// Receiver pulls a batch of messages for local polling modes.
// An empty batch with a nil error means nothing was waiting.
type Receiver interface {
	Receive(ctx context.Context, queueID string, limit int) ([]ReceivedMessage, error)
}
