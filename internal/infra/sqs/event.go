// internal/infra/sqs/event.go
package sqs

import (
	"workqueue-lambdas/internal/domain"

	"github.com/aws/aws-lambda-go/events"
)

// ReceivedMessages converts a Lambda SQS event into consumer input.
func ReceivedMessages(event events.SQSEvent) []domain.ReceivedMessage {
	msgs := make([]domain.ReceivedMessage, 0, len(event.Records))
	for _, r := range event.Records {
		msgs = append(msgs, domain.ReceivedMessage{MessageID: r.MessageId, Body: []byte(r.Body)})
	}
	return msgs
}
