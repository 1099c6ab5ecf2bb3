package transport

import (
	"testing"

	"github.com/gomathyk/sinkmux/pkg/options"
)

// resolveHolder merges sink-level statics with destination option sets.
func resolveHolder(t *testing.T, static map[string]string, destinations []map[string]string) *options.OptionHolder {
	t.Helper()

	holders := make([]*options.OptionHolder, 0, len(destinations))
	for _, d := range destinations {
		holders = append(holders, options.NewOptionHolder(d))
	}
	resolved, _, err := options.Merge(options.NewOptionHolder(static), holders)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return resolved
}

// selectContext builds a publish context pointed at destination id.
func selectContext(holder *options.OptionHolder, id int) *options.PublishContext {
	pc := options.NewPublishContext(holder)
	pc.Select(id)
	return pc
}
