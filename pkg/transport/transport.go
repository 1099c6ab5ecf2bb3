package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomathyk/sinkmux/pkg/options"
)

// ErrConnectionUnavailable marks a recoverable, connection-related failure.
// Callers may reconnect and resume; anything not wrapping this sentinel is a
// configuration or programming error and is fatal.
var ErrConnectionUnavailable = errors.New("connection unavailable")

// ErrNotInitialized is returned when an operation that needs a live
// transport runs before Initialize completed.
var ErrNotInitialized = errors.New("transport not initialized")

// StreamSchema identifies the event stream whose payloads a transport
// carries. Payloads arrive already serialized; the schema is informational.
type StreamSchema struct {
	ID         string
	Attributes []string
}

// Transport is a single underlying client able to deliver payloads to any
// of the destinations described by its resolved options. Which destination
// a given publish targets is decided by the PublishContext's selection.
//
// Implementations own their connection lifecycle and any serialization of
// access the underlying client requires.
type Transport interface {
	// Initialize validates and captures the resolved option holder.
	// Option problems are reported as *options.ConfigError.
	Initialize(ctx context.Context, schema StreamSchema, resolved *options.OptionHolder) error

	// Connect brings up the one physical connection. Failures wrap
	// ErrConnectionUnavailable.
	Connect(ctx context.Context) error

	// Publish delivers payload to the destination selected on opts.
	Publish(ctx context.Context, payload []byte, opts *options.PublishContext) error

	// Disconnect tears the connection down; the transport may be
	// connected again afterwards.
	Disconnect() error

	// Destroy releases all resources. The transport is unusable after.
	Destroy() error

	// SupportedDynamicOptions lists the option keys the transport
	// resolves per destination at publish time.
	SupportedDynamicOptions() []string

	// SnapshotState returns the transport's serializable state. The
	// schema of the mapping is owned by the transport.
	SnapshotState() map[string]any

	// RestoreState applies a mapping previously returned by
	// SnapshotState, possibly by another instance of the same kind.
	RestoreState(state map[string]any) error
}

// connectionUnavailable wraps err so it matches ErrConnectionUnavailable
// while keeping the underlying cause in the message.
func connectionUnavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrConnectionUnavailable, err)
}

// requiredStatic reads a mandatory static option from the holder.
func requiredStatic(holder *options.OptionHolder, key string) (string, error) {
	v, ok := holder.Static(key)
	if !ok || v == "" {
		return "", &options.ConfigError{Reason: fmt.Sprintf("option %q is required", key)}
	}
	return v, nil
}

// dynamicValue reads a per-destination option off the publish context.
func dynamicValue(opts *options.PublishContext, key string) (string, error) {
	v, ok := opts.Value(key)
	if !ok || v == "" {
		return "", fmt.Errorf("option %q has no value for destination %d", key, opts.SelectedDestination())
	}
	return v, nil
}
