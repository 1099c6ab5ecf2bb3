package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gomathyk/sinkmux/internal/config"
	"github.com/gomathyk/sinkmux/internal/logger"
	"github.com/gomathyk/sinkmux/internal/statestore"
	"github.com/gomathyk/sinkmux/pkg/distributor"
	"github.com/gomathyk/sinkmux/pkg/options"
	"github.com/gomathyk/sinkmux/pkg/strategy"
	"github.com/gomathyk/sinkmux/pkg/transport"
)

// Relay reads newline-delimited events from a source and distributes them
// across the sink's destinations. It owns the retry policy the distributor
// deliberately doesn't have: on a connection failure it reconnects with
// backoff and resumes the selector.
type Relay struct {
	cfg      *config.Config
	dist     *distributor.SingleClient
	selector strategy.Selector
	store    *statestore.Store
	streamID string
	log      logger.Logger
}

// NewRelay builds a relay runtime from the sink definition file and
// restores any persisted transport snapshot.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	def, err := options.LoadSinkFile(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sink file: %w", err)
	}
	log.InfoObj("sink definition loaded", "sink", map[string]any{
		"kind":         def.Kind,
		"stream":       def.StreamID,
		"destinations": len(def.Destinations),
	})

	selector := strategy.NewRoundRobin()
	dist := distributor.New(transport.DefaultRegistry(), selector, log)

	schema := transport.StreamSchema{ID: def.StreamID, Attributes: def.StreamAttributes}
	if err := dist.Initialize(ctx, schema, def.Base, def.Destinations, transport.Descriptor{Kind: def.Kind}); err != nil {
		return nil, fmt.Errorf("initialize distributor: %w", err)
	}

	store, err := statestore.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	streamID := def.StreamID
	if streamID == "" {
		streamID = def.Kind
	}

	if snapshot, ok, err := store.Load(streamID); err != nil {
		store.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	} else if ok {
		if err := dist.RestoreState(snapshot); err != nil {
			store.Close()
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
		log.InfoObj("transport snapshot restored", "stream", streamID)
	}

	return &Relay{
		cfg:      cfg,
		dist:     dist,
		selector: selector,
		store:    store,
		streamID: streamID,
		log:      log,
	}, nil
}

// Run connects and relays events from source until it is drained or the
// context is cancelled. The transport snapshot is persisted before
// returning.
func (r *Relay) Run(ctx context.Context, source io.Reader) error {
	if r == nil || r.dist == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.shutdown()

	if err := r.connect(ctx); err != nil {
		return err
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"destinations": r.dist.DestinationCount(),
		"backoff":      r.cfg.ReconnectBackoff.String(),
	})

	scanner := bufio.NewScanner(source)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		payload := append([]byte(nil), scanner.Bytes()...)
		if len(payload) == 0 {
			continue
		}
		if err := r.relayEvent(ctx, payload); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	return nil
}

// relayEvent publishes one payload, reconnecting as needed until it is
// delivered or the context ends.
func (r *Relay) relayEvent(ctx context.Context, payload []byte) error {
	for {
		id, ok := r.selector.Next()
		if !ok {
			if err := r.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		err := r.dist.Publish(ctx, payload, id)
		if err == nil {
			return nil
		}
		if errors.Is(err, transport.ErrConnectionUnavailable) {
			r.log.WarnObj("publish failed; reconnecting", "publish_error", map[string]any{
				"destination": id,
				"error":       err.Error(),
			})
			if err := r.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		// Non-connection errors are event-level problems; drop the
		// event and move on.
		r.log.ErrorObj("event dropped", "publish_error", map[string]any{
			"destination": id,
			"error":       err.Error(),
		})
		return nil
	}
}

// connect attempts the initial connection with backoff.
func (r *Relay) connect(ctx context.Context) error {
	attempts := 0
	for {
		err := r.dist.Connect(ctx)
		if err == nil {
			return nil
		}
		attempts++
		if r.cfg.MaxReconnectAttempts > 0 && attempts >= r.cfg.MaxReconnectAttempts {
			return fmt.Errorf("connect after %d attempts: %w", attempts, err)
		}
		r.log.WarnObj("connect failed; retrying", "connect_error", map[string]any{
			"attempt": attempts,
			"backoff": r.cfg.ReconnectBackoff.String(),
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.ReconnectBackoff):
		}
	}
}

// reconnect tears the connection down, reconnects, and resumes the
// selector once destinations are reachable again.
func (r *Relay) reconnect(ctx context.Context) error {
	if err := r.dist.Disconnect(); err != nil {
		r.log.WarnObj("disconnect before reconnect failed", "error", err.Error())
	}
	if err := r.connect(ctx); err != nil {
		return err
	}
	r.selector.Resume()
	return nil
}

// shutdown persists the snapshot and releases the transport and store.
func (r *Relay) shutdown() {
	if snapshot := r.dist.SnapshotState(); snapshot != nil {
		if err := r.store.Save(r.streamID, snapshot); err != nil {
			r.log.ErrorObj("persist snapshot failed", "error", err.Error())
		}
	}
	if err := r.dist.Disconnect(); err != nil {
		r.log.WarnObj("disconnect failed", "error", err.Error())
	}
	if err := r.dist.Destroy(); err != nil {
		r.log.WarnObj("destroy failed", "error", err.Error())
	}
	if err := r.store.Close(); err != nil {
		r.log.WarnObj("close state store failed", "error", err.Error())
	}
}
