// internal/infra/sqs/publisher.go
package sqs

import (
	"context"
	"fmt"
	"log/slog"

	"workqueue-lambdas/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// API is the subset of the SQS client used here.
type API interface {
	SendMessage(ctx context.Context, in *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

// numericAttributes are sent with the SQS Number data type.
var numericAttributes = map[string]bool{domain.AttrWorkID: true}

// Publisher sends work item messages to an SQS queue URL.
type Publisher struct {
	client API
	logger *slog.Logger
}

func NewPublisher(client API, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger.With("component", "sqs-publisher")}
}

func (p *Publisher) Publish(ctx context.Context, queueURL string, msg domain.OutboundMessage) (string, error) {
	attrs := make(map[string]types.MessageAttributeValue, len(msg.Attributes))
	for k, v := range msg.Attributes {
		dataType := "String"
		if numericAttributes[k] {
			dataType = "Number"
		}
		attrs[k] = types.MessageAttributeValue{
			DataType:    aws.String(dataType),
			StringValue: aws.String(v),
		}
	}

	out, err := p.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(string(msg.Body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("sqs send message: %w", err)
	}
	id := aws.ToString(out.MessageId)
	p.logger.Debug("message sent", "queue_url", queueURL, "message_id", id)
	return id, nil
}
