package transport

import (
	"context"
	"sync/atomic"

	"github.com/gomathyk/sinkmux/pkg/options"
)

const (
	// KindLog writes payloads to the structured log. Useful for dry runs
	// and as the default sink in examples.
	KindLog = "log"

	logOptionPrefix = "prefix"
)

// logTransport publishes events to the configured logger, one line per
// payload, tagged with the destination's prefix.
type logTransport struct {
	schema    StreamSchema
	holder    *options.OptionHolder
	connected atomic.Bool
	counter   deliveryCounter
	log       Logger
}

func newLogTransport(log Logger) Transport {
	return &logTransport{log: ensureLogger(log)}
}

func (l *logTransport) Initialize(_ context.Context, schema StreamSchema, resolved *options.OptionHolder) error {
	l.schema = schema
	l.holder = resolved
	return nil
}

func (l *logTransport) Connect(_ context.Context) error {
	l.connected.Store(true)
	return nil
}

func (l *logTransport) Publish(_ context.Context, payload []byte, opts *options.PublishContext) error {
	if !l.connected.Load() {
		return connectionUnavailable("log publish", ErrNotInitialized)
	}

	prefix, _ := opts.Value(logOptionPrefix)
	l.log.InfoObj("event published", "event", map[string]any{
		"stream":      l.schema.ID,
		"prefix":      prefix,
		"destination": opts.SelectedDestination(),
		"payload":     string(payload),
	})
	l.counter.record(opts.SelectedDestination())
	return nil
}

func (l *logTransport) Disconnect() error {
	l.connected.Store(false)
	return nil
}

func (l *logTransport) Destroy() error {
	l.connected.Store(false)
	return nil
}

func (l *logTransport) SupportedDynamicOptions() []string {
	return []string{logOptionPrefix}
}

func (l *logTransport) SnapshotState() map[string]any {
	return l.counter.snapshot()
}

func (l *logTransport) RestoreState(state map[string]any) error {
	return l.counter.restore(state)
}
