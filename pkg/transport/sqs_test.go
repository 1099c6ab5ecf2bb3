package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSTransportPublishSuccess(t *testing.T) {
	holder := resolveHolder(t, map[string]string{"region": "us-east-1"}, []map[string]string{
		{"queue.url": "https://example.com/queue-a"},
		{"queue.url": "https://example.com/queue-b"},
	})

	client := &fakeSQSClient{}
	tr := &sqsTransport{
		schema: StreamSchema{ID: "readings"},
		client: client,
		log:    noopLogger{},
	}

	if err := tr.Publish(context.Background(), []byte(`{"v":1}`), selectContext(holder, 1)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue-b" {
		t.Fatalf("QueueUrl = %s, want destination 1's queue", got)
	}
	if got := aws.ToString(client.input.MessageBody); got != `{"v":1}` {
		t.Fatalf("MessageBody = %s", got)
	}
	attr, ok := client.input.MessageAttributes["stream_id"]
	if !ok || aws.ToString(attr.StringValue) != "readings" {
		t.Fatalf("stream_id attribute missing or wrong: %#v", attr)
	}
	if got := tr.counter.delivered(1); got != 1 {
		t.Fatalf("delivered(1) = %d, want 1", got)
	}
}

func TestSQSTransportPublishErrorIsConnectionUnavailable(t *testing.T) {
	holder := resolveHolder(t, map[string]string{"region": "us-east-1"}, []map[string]string{
		{"queue.url": "https://example.com/queue-a"},
	})

	tr := &sqsTransport{
		client: &fakeSQSClient{err: errors.New("boom")},
		log:    noopLogger{},
	}

	err := tr.Publish(context.Background(), []byte("x"), selectContext(holder, 0))
	if !errors.Is(err, ErrConnectionUnavailable) {
		t.Fatalf("error = %v, want ErrConnectionUnavailable", err)
	}
	if got := tr.counter.delivered(0); got != 0 {
		t.Fatalf("failed publish must not be counted, got %d", got)
	}
}

func TestSQSTransportInitializeRequiresRegion(t *testing.T) {
	holder := resolveHolder(t, nil, []map[string]string{{"queue.url": "https://example.com/q"}})

	tr := &sqsTransport{log: noopLogger{}}
	if err := tr.Initialize(context.Background(), StreamSchema{}, holder); err == nil {
		t.Fatalf("expected error for missing region")
	}
}
