package options

import (
	"fmt"
	"sort"
)

// Option is a single named configuration value. A static option carries one
// value that applies everywhere; a dynamic option carries one value per
// destination, indexed by destination id.
type Option struct {
	key    string
	value  string
	values []string
}

// NewOption creates a static option.
func NewOption(key, value string) *Option {
	return &Option{key: key, value: value}
}

// Key returns the option name.
func (o *Option) Key() string { return o.key }

// IsDynamic reports whether the option varies by destination.
func (o *Option) IsDynamic() bool { return len(o.values) > 0 }

// Static returns the destination-independent value.
func (o *Option) Static() string { return o.value }

// At returns the value for the given destination id.
func (o *Option) At(id int) (string, bool) {
	if id < 0 || id >= len(o.values) {
		return "", false
	}
	return o.values[id], true
}

// Values returns a copy of the per-destination value list.
func (o *Option) Values() []string {
	out := make([]string, len(o.values))
	copy(out, o.values)
	return out
}

func (o *Option) appendValue(v string) {
	o.values = append(o.values, v)
}

// OptionHolder is an ordered set of options keyed by name.
type OptionHolder struct {
	opts map[string]*Option
}

// NewOptionHolder builds a holder from static key/value pairs.
func NewOptionHolder(static map[string]string) *OptionHolder {
	h := &OptionHolder{opts: make(map[string]*Option, len(static))}
	for k, v := range static {
		h.opts[k] = NewOption(k, v)
	}
	return h
}

// Get returns the option for key.
func (h *OptionHolder) Get(key string) (*Option, bool) {
	if h == nil {
		return nil, false
	}
	o, ok := h.opts[key]
	return o, ok
}

// Static returns the static value for key, or "" when the option is absent.
func (h *OptionHolder) Static(key string) (string, bool) {
	o, ok := h.Get(key)
	if !ok {
		return "", false
	}
	return o.value, true
}

// Keys returns all option names in sorted order.
func (h *OptionHolder) Keys() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, 0, len(h.opts))
	for k := range h.opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DynamicKeys returns the names of all per-destination options, sorted.
func (h *OptionHolder) DynamicKeys() []string {
	if h == nil {
		return nil
	}
	var keys []string
	for k, o := range h.opts {
		if o.IsDynamic() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (h *OptionHolder) clone() *OptionHolder {
	out := &OptionHolder{opts: make(map[string]*Option, len(h.opts))}
	for k, o := range h.opts {
		cp := &Option{key: o.key, value: o.value}
		if len(o.values) > 0 {
			cp.values = append([]string(nil), o.values...)
		}
		out.opts[k] = cp
	}
	return out
}

// Merge overlays each destination holder onto the base holder and promotes
// every key that appears in any destination into a dynamic option on the
// result, with one value per destination in processing order. That order
// assigns destination ids: the first destination holder becomes id 0.
//
// A destination that lacks a key from the union falls back to the base
// holder's static value for it. If the value is still missing or empty the
// merge fails; every promoted key must end up with exactly one non-empty
// value per destination.
//
// Returns the resolved holder and the destination count, which always
// equals len(destinations). The base holder is not modified.
func Merge(base *OptionHolder, destinations []*OptionHolder) (*OptionHolder, int, error) {
	if base == nil {
		base = NewOptionHolder(nil)
	}
	if len(destinations) == 0 {
		return nil, 0, &ConfigError{Reason: "at least one destination is required"}
	}

	union := unionKeys(destinations)
	resolved := base.clone()

	for i, dest := range destinations {
		for _, key := range union {
			value, ok := dest.Static(key)
			if !ok || value == "" {
				// Fall back to the shared sink-level value.
				value, ok = base.Static(key)
			}
			if !ok || value == "" {
				return nil, 0, &ConfigError{Reason: fmt.Sprintf(
					"destination %d: option %q: destination properties must be non-empty static values", i, key)}
			}

			opt, exists := resolved.opts[key]
			if !exists {
				opt = NewOption(key, value)
				resolved.opts[key] = opt
			}
			opt.appendValue(value)
		}
	}

	return resolved, len(destinations), nil
}

// unionKeys collects every key declared by any destination, deduplicated
// and sorted so destination ids are assigned deterministically.
func unionKeys(destinations []*OptionHolder) []string {
	seen := make(map[string]struct{})
	for _, dest := range destinations {
		for _, k := range dest.Keys() {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
