// Package timetrack measures wall-clock time spent in instrumented calls.
//
// A Tracker pairs Enter and Exit around each call it observes, keeping entry
// timestamps and nested-call time on a pair of parallel stacks. On exit it
// produces a Record carrying the call's total time and its self time, the
// part not spent in directly nested instrumented calls. Instrument functions
// with Wrap, or hand-placed spans:
//
//	defer tr.Start("load", path).End()
//
// Trackers are isolated by default; build them with Shared to interleave
// their calls on the process-wide stack pair.
package timetrack

import (
	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"
)

// Tracker measures nested instrumented calls over a Stacks handle and hands
// one Record per completed call to its Logger.
//
// A Tracker is not safe for concurrent use. All enter/exit pairs must happen
// on one logical execution path, strictly last-in first-out.
type Tracker struct {
	stacks  *Stacks
	logger  Logger
	clock   clock.Clock
	id      uuid.UUID
	enabled bool
}

// Option configures a Tracker at construction time.
type Option func(*Tracker)

// Disabled turns instrumentation off. Wrap returns its argument unchanged
// and Start returns a no-op span, leaving zero overhead on the call path.
func Disabled() Option {
	return func(t *Tracker) {
		t.enabled = false
	}
}

// Shared binds the tracker to the process-wide stack pair, so its calls and
// those of every other shared tracker form one logical call chain.
func Shared() Option {
	return func(t *Tracker) {
		t.stacks = SharedStacks()
	}
}

// WithStacks binds the tracker to an explicit stack pair.
func WithStacks(s *Stacks) Option {
	return func(t *Tracker) {
		t.stacks = s
	}
}

// WithClock sets the tracker's time source. The default is the wall clock.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// New returns a Tracker reporting to logger. By default the tracker is
// enabled, isolated on a fresh stack pair, and reads the wall clock. A nil
// logger is replaced by Discard.
func New(logger Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = Discard
	}
	t := &Tracker{
		logger:  logger,
		clock:   clock.NewClock(),
		id:      uuid.New(),
		enabled: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.stacks == nil {
		t.stacks = NewStacks()
	}
	return t
}

// ID returns the tracker's identifier, unique per constructed tracker.
func (t *Tracker) ID() uuid.UUID {
	return t.id
}

// Enabled reports whether the tracker instruments calls.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Logger returns the logger records are emitted to.
func (t *Tracker) Logger() Logger {
	return t.logger
}

// Depth returns the number of currently active calls on the tracker's
// stack pair.
func (t *Tracker) Depth() int {
	return t.stacks.Depth()
}

// Enter marks the start of an instrumented call. It pushes the current time
// and a fresh nested-call accumulator, and must be matched by exactly one
// Exit on the same stack pair.
func (t *Tracker) Enter() {
	t.stacks.push(t.clock.Now())
}

// Exit marks the end of the most recent active call and builds its Record.
// The call's total time is folded into the caller's nested-call accumulator
// so the caller's eventual self time excludes it. When no call is active,
// Exit fails with ErrUnbalancedStack and mutates nothing.
//
// Exit only builds the record. The Wrap and Start instrumentation paths pass
// it on to the tracker's Logger; direct callers decide for themselves.
func (t *Tracker) Exit(function string, args []interface{}, fields map[string]interface{}) (Record, error) {
	return t.exit(ident{name: function}, args, fields)
}

func (t *Tracker) exit(id ident, args []interface{}, fields map[string]interface{}) (Record, error) {
	depth := t.stacks.Depth()
	entry, childTotal, ok := t.stacks.pop()
	if !ok {
		return Record{}, ErrUnbalancedStack
	}
	end := t.clock.Now()
	total := end.Sub(entry)
	t.stacks.addToTop(total)
	return Record{
		Function: id.name,
		Package:  id.pkg,
		Args:     args,
		Fields:   fields,
		Depth:    depth,
		StartNS:  uint64(entry.UnixNano()),
		EndNS:    uint64(end.UnixNano()),
		TotalNS:  uint64(total),
		SelfNS:   uint64(total - childTotal),
	}, nil
}

// String renders the tracker's current stack contents for diagnostics.
func (t *Tracker) String() string {
	return t.stacks.String()
}
