package transport

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"

	"github.com/gomathyk/sinkmux/pkg/options"
)

const (
	// KindPubSub publishes to Google Cloud Pub/Sub topics over one
	// client. Each destination is a topic in the same project.
	KindPubSub = "pubsub"

	pubsubOptionProjectID = "project.id"
	pubsubOptionTopic     = "topic"
)

type pubsubTransport struct {
	projectID string
	client    *pubsub.Client
	mu        sync.Mutex
	topics    map[string]*pubsub.Topic
	counter   deliveryCounter
	log       Logger
}

func newPubSubTransport(log Logger) Transport {
	return &pubsubTransport{log: ensureLogger(log)}
}

func (p *pubsubTransport) Initialize(_ context.Context, _ StreamSchema, resolved *options.OptionHolder) error {
	projectID, err := requiredStatic(resolved, pubsubOptionProjectID)
	if err != nil {
		return err
	}
	p.projectID = projectID
	return nil
}

func (p *pubsubTransport) Connect(ctx context.Context) error {
	client, err := pubsub.NewClient(ctx, p.projectID)
	if err != nil {
		return connectionUnavailable(fmt.Sprintf("create pubsub client for project %s", p.projectID), err)
	}
	p.client = client
	p.mu.Lock()
	p.topics = make(map[string]*pubsub.Topic)
	p.mu.Unlock()
	return nil
}

func (p *pubsubTransport) Publish(ctx context.Context, payload []byte, opts *options.PublishContext) error {
	if p.client == nil {
		return fmt.Errorf("pubsub publish: %w", ErrConnectionUnavailable)
	}

	name, err := dynamicValue(opts, pubsubOptionTopic)
	if err != nil {
		return err
	}

	result := p.topic(name).Publish(ctx, &pubsub.Message{Data: payload})
	if _, err := result.Get(ctx); err != nil {
		p.log.ErrorObj("pubsub transport publish failed", "transport_pubsub_error", map[string]any{
			"topic": name,
			"error": err.Error(),
		})
		return connectionUnavailable(fmt.Sprintf("publish to pubsub topic %s", name), err)
	}
	p.counter.record(opts.SelectedDestination())
	return nil
}

// topic caches topic handles so all destinations share the one client's
// publish flow control.
func (p *pubsubTransport) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return t
	}
	t := p.client.Topic(name)
	p.topics[name] = t
	return t
}

func (p *pubsubTransport) Disconnect() error {
	p.mu.Lock()
	for _, t := range p.topics {
		t.Stop()
	}
	p.topics = nil
	p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

func (p *pubsubTransport) Destroy() error {
	return p.Disconnect()
}

func (p *pubsubTransport) SupportedDynamicOptions() []string {
	return []string{pubsubOptionTopic}
}

func (p *pubsubTransport) SnapshotState() map[string]any {
	return p.counter.snapshot()
}

func (p *pubsubTransport) RestoreState(state map[string]any) error {
	return p.counter.restore(state)
}
