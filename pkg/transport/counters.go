package transport

import (
	"fmt"
	"strconv"
	"sync"
)

const stateKeyDelivered = "delivered"

// deliveryCounter tracks successful publishes per destination id. It is the
// state every built-in transport exposes through SnapshotState/RestoreState.
type deliveryCounter struct {
	mu     sync.Mutex
	counts map[int]uint64
}

func (c *deliveryCounter) record(destinationID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[int]uint64)
	}
	c.counts[destinationID]++
}

func (c *deliveryCounter) delivered(destinationID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[destinationID]
}

func (c *deliveryCounter) snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	delivered := make(map[string]uint64, len(c.counts))
	for id, n := range c.counts {
		delivered[strconv.Itoa(id)] = n
	}
	return map[string]any{stateKeyDelivered: delivered}
}

func (c *deliveryCounter) restore(state map[string]any) error {
	if state == nil {
		return nil
	}
	raw, ok := state[stateKeyDelivered]
	if !ok {
		return nil
	}

	counts := make(map[int]uint64)
	switch m := raw.(type) {
	case map[string]uint64:
		for k, n := range m {
			id, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("restore delivered counts: bad destination id %q", k)
			}
			counts[id] = n
		}
	case map[string]any:
		for k, v := range m {
			id, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("restore delivered counts: bad destination id %q", k)
			}
			n, err := toUint64(v)
			if err != nil {
				return fmt.Errorf("restore delivered counts for destination %d: %w", id, err)
			}
			counts[id] = n
		}
	default:
		return fmt.Errorf("restore delivered counts: unexpected type %T", raw)
	}

	c.mu.Lock()
	c.counts = counts
	c.mu.Unlock()
	return nil
}

// toUint64 accepts the numeric types a JSON or gob round-trip may produce.
func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	case float64:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
