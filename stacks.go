package timetrack

import (
	"fmt"
	"strings"
	"time"
)

// Stacks is the pair of parallel stacks backing a Tracker: one entry
// timestamp per active call, and one nested-call time accumulator per active
// call plus a permanent root slot. The root slot collects the total times of
// top-level calls and is never popped, so the accumulator stack always holds
// exactly one more element than the timestamp stack.
//
// Use NewStacks; the zero value is missing the root slot.
type Stacks struct {
	entries     []time.Time
	childTotals []time.Duration
}

// NewStacks returns an empty stack pair holding only the root accumulator.
func NewStacks() *Stacks {
	return &Stacks{childTotals: []time.Duration{0}}
}

// shared lives for the whole process and is never reset.
var shared = NewStacks()

// SharedStacks returns the process-wide stack pair. Trackers built with the
// Shared option all push and pop on this handle, so their calls interleave
// into one logical call chain.
func SharedStacks() *Stacks {
	return shared
}

// Depth returns the number of currently active calls.
func (s *Stacks) Depth() int {
	return len(s.entries)
}

// RootTotal returns the accumulated total time of all completed top-level
// calls.
func (s *Stacks) RootTotal() time.Duration {
	return s.childTotals[0]
}

func (s *Stacks) push(t time.Time) {
	s.entries = append(s.entries, t)
	s.childTotals = append(s.childTotals, 0)
}

// pop removes the most recent entry together with its accumulator. ok is
// false when no call is active, in which case nothing was mutated.
func (s *Stacks) pop() (entry time.Time, childTotal time.Duration, ok bool) {
	if len(s.entries) == 0 {
		return time.Time{}, 0, false
	}
	entry, s.entries = s.entries[len(s.entries)-1], s.entries[:len(s.entries)-1]
	childTotal, s.childTotals = s.childTotals[len(s.childTotals)-1], s.childTotals[:len(s.childTotals)-1]
	return entry, childTotal, true
}

// addToTop folds a completed call's total time into the accumulator of the
// call now on top, or into the root slot when the stack emptied.
func (s *Stacks) addToTop(d time.Duration) {
	s.childTotals[len(s.childTotals)-1] += d
}

// String renders the stack contents for diagnostics.
func (s *Stacks) String() string {
	var b strings.Builder
	b.WriteString("entries: [")
	for i, e := range s.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Format(time.RFC3339Nano))
	}
	fmt.Fprintf(&b, "], child_totals: [%s", s.childTotals[0])
	for _, d := range s.childTotals[1:] {
		fmt.Fprintf(&b, ", %s", d)
	}
	b.WriteString("]")
	return b.String()
}
