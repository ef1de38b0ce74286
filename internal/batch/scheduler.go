package batch

import (
	"fmt"

	"github.com/gogpu/gldirect/internal/primitive"
)

// Reason identifies why pending vertices were submitted.
type Reason uint8

const (
	// ReasonTopology: Begin selected a reduced topology different from the
	// one resident in the vertex buffer.
	ReasonTopology Reason = iota
	// ReasonOverflow: the next primitive does not fit behind the pending ones.
	ReasonOverflow
	// ReasonExplicit: the caller asked for a flush.
	ReasonExplicit
	// ReasonListBoundary: a display list was opened, closed or called.
	ReasonListBoundary
	// ReasonStateChange: shading-relevant state changed.
	ReasonStateChange
	// ReasonTeardown: the context is closing or the device is going away.
	ReasonTeardown

	// NumReasons is the number of flush reasons.
	NumReasons = 6
)

var reasonNames = [...]string{
	ReasonTopology:     "Topology",
	ReasonOverflow:     "Overflow",
	ReasonExplicit:     "Explicit",
	ReasonListBoundary: "ListBoundary",
	ReasonStateChange:  "StateChange",
	ReasonTeardown:     "Teardown",
}

// String returns the string representation of the reason.
func (r Reason) String() string {
	if r < NumReasons {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

// Scheduler decides when pending vertices must be submitted and counts
// flushes by reason.
type Scheduler struct {
	needed bool
	counts [NumReasons]uint64
}

// NeedFlush reports whether vertices were expanded since the last flush.
func (s *Scheduler) NeedFlush() bool { return s.needed }

// TopologyChange reports whether opening a primitive of reduced topology
// next requires a flush first.
func (s *Scheduler) TopologyChange(resident, next primitive.Reduced, pending int) bool {
	return pending > 0 && resident != next
}

// Overflow reports whether n more vertices written at index next exceed
// capacity.
func (s *Scheduler) Overflow(next, n, capacity int) bool {
	return next+n > capacity
}

// Count returns the number of flushes recorded for r.
func (s *Scheduler) Count(r Reason) uint64 { return s.counts[r] }

// Total returns the number of flushes recorded for all reasons.
func (s *Scheduler) Total() uint64 {
	var n uint64
	for _, c := range s.counts {
		n += c
	}
	return n
}

func (s *Scheduler) markNeeded() { s.needed = true }

func (s *Scheduler) flushed(r Reason) {
	s.needed = false
	s.counts[r]++
}

func (s *Scheduler) clear() { s.needed = false }
