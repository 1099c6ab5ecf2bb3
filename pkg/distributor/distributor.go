// Package distributor publishes to N logical destinations through one
// underlying transport client. It resolves per-destination options at
// publish time, registers destinations with a publishing strategy on
// connect, and suspends the strategy when the connection fails. It never
// retries on its own; reconnecting is the caller's job.
package distributor

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomathyk/sinkmux/pkg/options"
	"github.com/gomathyk/sinkmux/pkg/strategy"
	"github.com/gomathyk/sinkmux/pkg/transport"
)

// SingleClient is a distributed sink backed by exactly one transport
// client. All fields are set once by Initialize and immutable afterwards,
// which is what makes concurrent Publish calls safe.
type SingleClient struct {
	registry transport.Registry
	strategy strategy.Strategy
	log      transport.Logger

	tr               transport.Transport
	resolved         *options.OptionHolder
	destinationCount int
}

// New builds a distributor over the given registry and strategy. The
// strategy must not be nil; it is the only party told about destination
// availability.
func New(registry transport.Registry, strat strategy.Strategy, log transport.Logger) *SingleClient {
	return &SingleClient{
		registry: registry,
		strategy: strat,
		log:      log,
	}
}

// Initialize merges the sink-level options with the per-destination option
// sets, resolves the transport declared by the descriptor, and initializes
// it with the merged result. Any failure is fatal and leaves the
// distributor uninitialized.
func (d *SingleClient) Initialize(ctx context.Context, schema transport.StreamSchema,
	base *options.OptionHolder, destinations []*options.OptionHolder, desc transport.Descriptor) error {

	resolved, count, err := options.Merge(base, destinations)
	if err != nil {
		return fmt.Errorf("merge destination options: %w", err)
	}

	tr, err := d.registry.New(desc, d.log)
	if err != nil {
		return fmt.Errorf("resolve transport: %w", err)
	}
	if err := tr.Initialize(ctx, schema, resolved); err != nil {
		return fmt.Errorf("initialize %s transport: %w", desc.Kind, err)
	}

	d.tr = tr
	d.resolved = resolved
	d.destinationCount = count
	return nil
}

// Connect brings up the one physical connection and registers every
// destination id with the strategy. If the transport cannot connect, no
// destination is registered and the error is returned as-is.
func (d *SingleClient) Connect(ctx context.Context) error {
	if d.tr == nil {
		return fmt.Errorf("connect: %w", transport.ErrNotInitialized)
	}
	if err := d.tr.Connect(ctx); err != nil {
		return err
	}
	for id := 0; id < d.destinationCount; id++ {
		d.strategy.RegisterDestination(id)
	}
	return nil
}

// Publish delivers payload to the given destination. On a connection
// failure the strategy is suspended exactly once before the error
// propagates unchanged; the distributor never retries.
//
// A fresh publish context is built per call, so concurrent publishers
// cannot overwrite each other's destination selection.
func (d *SingleClient) Publish(ctx context.Context, payload []byte, destinationID int) error {
	if d.tr == nil {
		return fmt.Errorf("publish: %w", transport.ErrNotInitialized)
	}
	if destinationID < 0 || destinationID >= d.destinationCount {
		return fmt.Errorf("publish: destination id %d out of range [0, %d)", destinationID, d.destinationCount)
	}

	pc := options.NewPublishContext(d.resolved)
	pc.Select(destinationID)

	if err := d.tr.Publish(ctx, payload, pc); err != nil {
		if errors.Is(err, transport.ErrConnectionUnavailable) {
			d.strategy.Suspend()
		}
		return err
	}
	return nil
}

// Disconnect tears down the transport connection. No destination-state
// side effects.
func (d *SingleClient) Disconnect() error {
	if d.tr == nil {
		return nil
	}
	return d.tr.Disconnect()
}

// Destroy releases the transport's resources.
func (d *SingleClient) Destroy() error {
	if d.tr == nil {
		return nil
	}
	return d.tr.Destroy()
}

// SnapshotState returns the transport's state unchanged; the distributor
// has no state of its own to contribute.
func (d *SingleClient) SnapshotState() map[string]any {
	if d.tr == nil {
		return nil
	}
	return d.tr.SnapshotState()
}

// RestoreState forwards a snapshot to the transport unchanged.
func (d *SingleClient) RestoreState(state map[string]any) error {
	if d.tr == nil {
		return fmt.Errorf("restore state: %w", transport.ErrNotInitialized)
	}
	return d.tr.RestoreState(state)
}

// SupportedDynamicOptions delegates to the transport.
func (d *SingleClient) SupportedDynamicOptions() ([]string, error) {
	if d.tr == nil {
		return nil, fmt.Errorf("supported dynamic options: %w", transport.ErrNotInitialized)
	}
	return d.tr.SupportedDynamicOptions(), nil
}

// DestinationCount reports how many destinations the sink serves. Zero
// before Initialize.
func (d *SingleClient) DestinationCount() int {
	return d.destinationCount
}
