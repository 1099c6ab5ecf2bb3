package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/gomathyk/sinkmux/pkg/options"
)

const (
	// KindSQS publishes to AWS SQS queues over one client. Each
	// destination is a queue URL in the same region.
	KindSQS = "sqs"

	sqsOptionRegion   = "region"
	sqsOptionQueueURL = "queue.url"
)

// sqsClient defines the minimal subset of the SQS client used by sqsTransport.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsTransport struct {
	region  string
	schema  StreamSchema
	client  sqsClient
	counter deliveryCounter
	log     Logger
}

func newSQSTransport(log Logger) Transport {
	return &sqsTransport{log: ensureLogger(log)}
}

func (s *sqsTransport) Initialize(_ context.Context, schema StreamSchema, resolved *options.OptionHolder) error {
	region, err := requiredStatic(resolved, sqsOptionRegion)
	if err != nil {
		return err
	}
	s.region = region
	s.schema = schema
	return nil
}

func (s *sqsTransport) Connect(ctx context.Context) error {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(s.region))
	if err != nil {
		return connectionUnavailable("load aws config", err)
	}
	s.client = sqs.NewFromConfig(awsCfg)
	return nil
}

func (s *sqsTransport) Publish(ctx context.Context, payload []byte, opts *options.PublishContext) error {
	if s.client == nil {
		return fmt.Errorf("sqs publish: %w", ErrConnectionUnavailable)
	}

	queueURL, err := dynamicValue(opts, sqsOptionQueueURL)
	if err != nil {
		return err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"stream_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.schema.ID),
			},
		},
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		s.log.ErrorObj("sqs transport send failed", "transport_sqs_error", map[string]any{
			"queue_url": queueURL,
			"error":     err.Error(),
		})
		return connectionUnavailable("send message to sqs", err)
	}
	s.counter.record(opts.SelectedDestination())
	s.log.DebugObj("sqs transport delivered event", "transport_sqs_delivery", map[string]any{
		"destination": opts.SelectedDestination(),
	})
	return nil
}

func (s *sqsTransport) Disconnect() error {
	s.client = nil
	return nil
}

func (s *sqsTransport) Destroy() error {
	s.client = nil
	return nil
}

func (s *sqsTransport) SupportedDynamicOptions() []string {
	return []string{sqsOptionQueueURL}
}

func (s *sqsTransport) SnapshotState() map[string]any {
	return s.counter.snapshot()
}

func (s *sqsTransport) RestoreState(state map[string]any) error {
	return s.counter.restore(state)
}
