// Package strategy tracks which destinations of a distributed sink are
// currently available and hands destination ids to the publishing pipeline.
//
// The distributor only ever registers destinations and signals suspension;
// picking the next destination is the upstream caller's business, via the
// Selector extension.
package strategy

import "sync"

// Strategy is the surface the distributor drives: destinations become known
// on connect, and selection is suspended after a connection failure until
// the caller reconnects.
type Strategy interface {
	RegisterDestination(id int)
	Suspend()
}

// Selector extends Strategy with the caller-facing side: pick the next
// destination to publish to, and resume after a successful reconnect.
type Selector interface {
	Strategy
	Next() (int, bool)
	Resume()
}

// RoundRobin cycles through registered destinations in id order.
type RoundRobin struct {
	mu        sync.Mutex
	ids       []int
	pos       int
	suspended bool
}

// NewRoundRobin returns an empty round-robin selector.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// RegisterDestination marks id available. Re-registering a known id is a
// no-op, so reconnects are idempotent.
func (r *RoundRobin) RegisterDestination(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, known := range r.ids {
		if known == id {
			return
		}
	}
	r.ids = insertSorted(r.ids, id)
}

// Suspend stops Next from handing out destinations until Resume.
func (r *RoundRobin) Suspend() {
	r.mu.Lock()
	r.suspended = true
	r.mu.Unlock()
}

// Resume lifts a suspension.
func (r *RoundRobin) Resume() {
	r.mu.Lock()
	r.suspended = false
	r.mu.Unlock()
}

// Next returns the next destination id in rotation. The second return is
// false while suspended or before any destination is registered.
func (r *RoundRobin) Next() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspended || len(r.ids) == 0 {
		return 0, false
	}
	id := r.ids[r.pos%len(r.ids)]
	r.pos++
	return id, true
}

// Failover always selects the lowest registered destination id.
type Failover struct {
	mu        sync.Mutex
	ids       []int
	suspended bool
}

// NewFailover returns an empty failover selector.
func NewFailover() *Failover {
	return &Failover{}
}

// RegisterDestination marks id available.
func (f *Failover) RegisterDestination(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, known := range f.ids {
		if known == id {
			return
		}
	}
	f.ids = insertSorted(f.ids, id)
}

// Suspend stops Next from handing out destinations until Resume.
func (f *Failover) Suspend() {
	f.mu.Lock()
	f.suspended = true
	f.mu.Unlock()
}

// Resume lifts a suspension.
func (f *Failover) Resume() {
	f.mu.Lock()
	f.suspended = false
	f.mu.Unlock()
}

// Next returns the primary (lowest) destination id.
func (f *Failover) Next() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.suspended || len(f.ids) == 0 {
		return 0, false
	}
	return f.ids[0], true
}

func insertSorted(ids []int, id int) []int {
	pos := len(ids)
	for i, known := range ids {
		if id < known {
			pos = i
			break
		}
	}
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = id
	return ids
}
