package strategy

import "testing"

func TestRoundRobinCyclesInOrder(t *testing.T) {
	rr := NewRoundRobin()
	// Register out of order; rotation is by id.
	rr.RegisterDestination(2)
	rr.RegisterDestination(0)
	rr.RegisterDestination(1)

	var got []int
	for i := 0; i < 6; i++ {
		id, ok := rr.Next()
		if !ok {
			t.Fatalf("Next unavailable at step %d", i)
		}
		got = append(got, id)
	}
	want := []int{0, 1, 2, 0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}

func TestRoundRobinEmptyIsUnavailable(t *testing.T) {
	rr := NewRoundRobin()
	if _, ok := rr.Next(); ok {
		t.Fatalf("Next should be unavailable before any registration")
	}
}

func TestRoundRobinRegisterIsIdempotent(t *testing.T) {
	rr := NewRoundRobin()
	rr.RegisterDestination(0)
	rr.RegisterDestination(0)
	rr.RegisterDestination(1)

	seen := map[int]int{}
	for i := 0; i < 4; i++ {
		id, _ := rr.Next()
		seen[id]++
	}
	if seen[0] != 2 || seen[1] != 2 {
		t.Fatalf("duplicate registration skewed rotation: %v", seen)
	}
}

func TestRoundRobinSuspendResume(t *testing.T) {
	rr := NewRoundRobin()
	rr.RegisterDestination(0)

	rr.Suspend()
	if _, ok := rr.Next(); ok {
		t.Fatalf("Next should be unavailable while suspended")
	}

	rr.Resume()
	if id, ok := rr.Next(); !ok || id != 0 {
		t.Fatalf("Next after Resume = %d, %v", id, ok)
	}
}

func TestFailoverPrefersLowestID(t *testing.T) {
	f := NewFailover()
	f.RegisterDestination(3)
	f.RegisterDestination(1)

	for i := 0; i < 3; i++ {
		if id, ok := f.Next(); !ok || id != 1 {
			t.Fatalf("Next = %d, %v, want 1", id, ok)
		}
	}
}

func TestFailoverSuspend(t *testing.T) {
	f := NewFailover()
	f.RegisterDestination(0)
	f.Suspend()
	if _, ok := f.Next(); ok {
		t.Fatalf("Next should be unavailable while suspended")
	}
}
