package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Entity types carried by invalidation events.
const (
	EntityHospital = "hospital"
	EntityPet      = "pet"
)

// InvalidationEvent is an entity-change notification published by writers
// (other service instances, backfill jobs) and consumed by the invalidation
// worker to keep cached reads from serving stale data.
type InvalidationEvent struct {
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id,omitempty"`
	Patterns  []string  `json:"patterns,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Message pairs a decoded event with its queue bookkeeping. Event is nil
// when the body did not decode.
type Message struct {
	ID            string
	ReceiptHandle string
	Event         *InvalidationEvent
}

type SQSAPI interface {
	SendMessage(ctx context.Context, input *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, input *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSClient struct {
	Client   SQSAPI
	QueueURL string
}

func NewSQSClient(ctx context.Context, queueURL string) (*SQSClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SQSClient{Client: sqs.NewFromConfig(cfg), QueueURL: queueURL}, nil
}

// NewSQSClientWithAPI allows injecting a custom SQSAPI (for testing)
func NewSQSClientWithAPI(api SQSAPI, queueURL string) *SQSClient {
	return &SQSClient{Client: api, QueueURL: queueURL}
}

// EnqueueInvalidation publishes an invalidation event.
func (q *SQSClient) EnqueueInvalidation(ctx context.Context, event InvalidationEvent) error {
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation event: %w", err)
	}
	_, err = q.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send invalidation event: %w", err)
	}
	return nil
}

// ReceiveInvalidations long-polls the queue for a batch of messages.
// Messages with bodies that do not decode are still returned (with a nil
// Event) so the consumer can acknowledge and drop them.
func (q *SQSClient) ReceiveInvalidations(ctx context.Context, maxMessages, waitSeconds int32) ([]Message, error) {
	resp, err := q.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.QueueURL),
		MaxNumberOfMessages: maxMessages,
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		m := Message{}
		if msg.MessageId != nil {
			m.ID = *msg.MessageId
		}
		if msg.ReceiptHandle != nil {
			m.ReceiptHandle = *msg.ReceiptHandle
		}
		if msg.Body != nil {
			var event InvalidationEvent
			if err := json.Unmarshal([]byte(*msg.Body), &event); err == nil {
				m.Event = &event
			}
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// DeleteMessage acknowledges one message by receipt handle.
func (q *SQSClient) DeleteMessage(ctx context.Context, receiptHandle string) error {
	_, err := q.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	return err
}
