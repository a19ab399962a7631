// Package sqs publishes notifications to an SQS queue.
package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
)

// Sender is the subset of *sqs.Client the publisher uses.
type Sender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends one SQS message per notification.
type Publisher struct {
	client   Sender
	queueURL string
	logger   *slog.Logger
}

// NewPublisher creates a publisher for queueURL.
func NewPublisher(client Sender, queueURL string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, queueURL: queueURL, logger: logger}
}

// Publish sends the notifications in order and stops at the first failure.
// A FIFO queue groups messages by kind and deduplicates on the notification ID.
func (p *Publisher) Publish(ctx context.Context, notifications ...domain.Notification) error {
	for _, n := range notifications {
		body, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("serialize notification: %w", err)
		}
		input := &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
			MessageAttributes: map[string]sqstypes.MessageAttributeValue{
				"kind": {DataType: aws.String("String"), StringValue: aws.String(string(n.Kind))},
			},
		}
		if strings.HasSuffix(p.queueURL, ".fifo") {
			input.MessageGroupId = aws.String(string(n.Kind))
			input.MessageDeduplicationId = aws.String(n.ID)
		}
		if _, err := p.client.SendMessage(ctx, input); err != nil {
			return fmt.Errorf("sqs publish %s to %s: %w", n.Kind, p.queueURL, err)
		}
		p.logger.Debug("notification published", "kind", string(n.Kind), "id", n.ID, "queue", p.queueURL)
	}
	return nil
}

// Close is a no-op; the SDK client holds no connection to release.
func (p *Publisher) Close() error { return nil }

