// Package seqlock implements the cross-thread snapshot protocol of the
// sequencer: every live state struct is prefixed with a Version counter that
// is even while the state is stable and odd while the single writer is
// mutating it. Readers copy the fields they need optimistically and use the
// counter to detect torn copies; the writer never blocks on readers and
// readers never block the writer. The only cost of contention is a reader
// occasionally discarding one frame's update, which the next frame retries.
package seqlock

import "sync/atomic"

// DefaultRetryBudget is the number of failed read attempts after which a
// reader gives up for the current frame and keeps its previous state.
const DefaultRetryBudget = 3

type (
	// Version is the seqlock counter guarding one snapshot. The zero value is
	// ready to use (version 0, stable). Only one goroutine may write at a
	// time; the engine serializes its writers with a mutex.
	Version struct {
		v atomic.Uint32
	}

	// Reader performs bounded-retry optimistic reads against a Version.
	// Budget <= 0 means DefaultRetryBudget. Attempts and Aborts count total
	// read attempts and abandoned read cycles; they belong to the reading
	// goroutine and are not synchronized.
	Reader struct {
		Budget   int
		Attempts uint64
		Aborts   uint64
	}
)

// Load returns the current counter value.
func (s *Version) Load() uint32 {
	return s.v.Load()
}

// BeginWrite marks the snapshot as being written (even -> odd). The writer
// must pair it with EndWrite after all fields are written.
func (s *Version) BeginWrite() {
	s.v.Add(1)
}

// EndWrite marks the snapshot stable again (odd -> even).
func (s *Version) EndWrite() {
	s.v.Add(1)
}

// Write runs f inside a BeginWrite/EndWrite window.
func (s *Version) Write(f func()) {
	s.BeginWrite()
	f()
	s.EndWrite()
}

// Read attempts a consistent copy of the snapshot guarded by v. copy must
// copy every field of interest into reader-private storage; it may observe a
// torn state, which Read detects and discards via the version counter, so
// copy must not act on the values it reads. Read returns true when the copy
// is consistent and false when the retry budget was exhausted; in the latter
// case the caller keeps its previous state for this frame.
func (r *Reader) Read(v *Version, copy func()) bool {
	budget := r.Budget
	if budget <= 0 {
		budget = DefaultRetryBudget
	}
	failures := 0
	for {
		r.Attempts++
		v1 := v.Load()
		if v1&1 == 0 {
			copy()
			if v.Load() == v1 {
				return true
			}
		}
		failures++
		if failures >= budget {
			r.Aborts++
			return false
		}
	}
}
