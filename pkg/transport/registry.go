package transport

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gomathyk/sinkmux/pkg/options"
)

// Descriptor declares which concrete transport kind to instantiate.
type Descriptor struct {
	Kind string
}

// Factory creates an uninitialized Transport.
type Factory func(log Logger) Transport

// Registry maps transport kinds to factories.
type Registry interface {
	Register(kind string, factory Factory)
	New(desc Descriptor, log Logger) (Transport, error)
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with optional pre-registered factories.
func NewRegistry(factories map[string]Factory) Registry {
	r := &registry{
		factories: make(map[string]Factory),
	}
	for kind, f := range factories {
		r.Register(kind, f)
	}
	return r
}

// Register associates a factory with a transport kind.
func (r *registry) Register(kind string, factory Factory) {
	if kind = strings.TrimSpace(strings.ToLower(kind)); kind == "" || factory == nil {
		return
	}

	r.mu.Lock()
	r.factories[kind] = factory
	r.mu.Unlock()
}

// New instantiates the transport declared by the descriptor.
func (r *registry) New(desc Descriptor, log Logger) (Transport, error) {
	kind := strings.TrimSpace(strings.ToLower(desc.Kind))
	if kind == "" {
		return nil, &options.ConfigError{Reason: "transport kind is empty"}
	}

	r.mu.RLock()
	factory := r.factories[kind]
	r.mu.RUnlock()

	if factory == nil {
		return nil, &options.ConfigError{Reason: fmt.Sprintf("no transport registered for kind %q", desc.Kind)}
	}
	return factory(ensureLogger(log)), nil
}

// DefaultRegistry wires up the built-in transports.
func DefaultRegistry() Registry {
	factories := map[string]Factory{
		KindLog:    newLogTransport,
		KindMQTT:   newMQTTTransport,
		KindSQS:    newSQSTransport,
		KindSNS:    newSNSTransport,
		KindPubSub: newPubSubTransport,
		KindHTTP:   newHTTPTransport,
	}
	return NewRegistry(factories)
}
