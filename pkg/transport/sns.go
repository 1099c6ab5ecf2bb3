package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/gomathyk/sinkmux/pkg/options"
)

const (
	// KindSNS publishes to AWS SNS topics over one client. Each
	// destination is a topic ARN in the same region.
	KindSNS = "sns"

	snsOptionRegion   = "region"
	snsOptionTopicARN = "topic.arn"
)

// snsClient defines the minimal subset of the SNS client used by snsTransport.
type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsTransport struct {
	region  string
	schema  StreamSchema
	client  snsClient
	counter deliveryCounter
	log     Logger
}

func newSNSTransport(log Logger) Transport {
	return &snsTransport{log: ensureLogger(log)}
}

func (s *snsTransport) Initialize(_ context.Context, schema StreamSchema, resolved *options.OptionHolder) error {
	region, err := requiredStatic(resolved, snsOptionRegion)
	if err != nil {
		return err
	}
	s.region = region
	s.schema = schema
	return nil
}

func (s *snsTransport) Connect(ctx context.Context) error {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(s.region))
	if err != nil {
		return connectionUnavailable("load aws config", err)
	}
	s.client = sns.NewFromConfig(awsCfg)
	return nil
}

func (s *snsTransport) Publish(ctx context.Context, payload []byte, opts *options.PublishContext) error {
	if s.client == nil {
		return fmt.Errorf("sns publish: %w", ErrConnectionUnavailable)
	}

	topicARN, err := dynamicValue(opts, snsOptionTopicARN)
	if err != nil {
		return err
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"stream_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.schema.ID),
			},
		},
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		s.log.ErrorObj("sns transport publish failed", "transport_sns_error", map[string]any{
			"topic_arn": topicARN,
			"error":     err.Error(),
		})
		return connectionUnavailable("publish to sns", err)
	}
	s.counter.record(opts.SelectedDestination())
	return nil
}

func (s *snsTransport) Disconnect() error {
	s.client = nil
	return nil
}

func (s *snsTransport) Destroy() error {
	s.client = nil
	return nil
}

func (s *snsTransport) SupportedDynamicOptions() []string {
	return []string{snsOptionTopicARN}
}

func (s *snsTransport) SnapshotState() map[string]any {
	return s.counter.snapshot()
}

func (s *snsTransport) RestoreState(state map[string]any) error {
	return s.counter.restore(state)
}
