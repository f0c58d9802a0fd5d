package timetrack_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/testutil"
)

func double(n int) int { return 2 * n }

func divmod(a, b int) (int, int) { return a / b, a % b }

func TestWrap(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	wrapped := timetrack.Wrap(tr, divmod)
	q, r := wrapped(17, 5)
	if q != 3 || r != 2 {
		t.Fatalf("arguments and results should pass through unchanged, got %d and %d", q, r)
	}
	if collector.Len() != 1 {
		t.Fatalf("expected one record per invocation, got %d", collector.Len())
	}

	rec := collector.Records()[0]
	want := timetrack.Record{
		Function: "divmod",
		Package:  "timetrack_test",
		Args:     []interface{}{17, 5},
		Depth:    1,
		TotalNS:  rec.TotalNS,
		SelfNS:   rec.SelfNS,
		StartNS:  rec.StartNS,
		EndNS:    rec.EndNS,
	}
	if diff := testutil.Diff(rec, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if rec.TotalNS != rec.SelfNS {
		t.Fatalf("a leaf call spends all its time in its own body, got total %d and self %d", rec.TotalNS, rec.SelfNS)
	}
}

func TestWrapRuntimeName(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	timetrack.Wrap(tr, double)(21)

	rec := collector.Records()[0]
	if rec.Package != "timetrack_test" || rec.Function != "double" {
		t.Fatalf("unexpected name %q in package %q", rec.Function, rec.Package)
	}
	if rec.FullName() != "timetrack_test.double" {
		t.Fatalf("unexpected full name %q", rec.FullName())
	}
}

func TestWrapWithName(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	wrapped := timetrack.Wrap(tr, func(n int) int { return n + 1 }, timetrack.WithName("increment"))
	if got := wrapped(41); got != 42 {
		t.Fatalf("unexpected result %d", got)
	}

	rec := collector.Records()[0]
	if rec.Function != "increment" || rec.Package != "" {
		t.Fatalf("WithName should replace the runtime name, got %q in package %q", rec.Function, rec.Package)
	}
}

func TestWrapWithFields(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	wrapped := timetrack.Wrap(tr, double, timetrack.WithFields(map[string]interface{}{"source": "batch"}))
	wrapped(1)
	wrapped(2)

	for i, rec := range collector.Records() {
		if diff := testutil.Diff(rec.Fields, map[string]interface{}{"source": "batch"}); diff != "" {
			t.Fatalf("record %d fields mismatch: got - want +\n%s", i, diff)
		}
	}
}

func TestWrapVariadic(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	sum := timetrack.Wrap(tr, func(base int, ns ...int) int {
		for _, n := range ns {
			base += n
		}
		return base
	}, timetrack.WithName("sum"))
	if got := sum(1, 2, 3, 4); got != 10 {
		t.Fatalf("variadic arguments should pass through unchanged, got %d", got)
	}

	rec := collector.Records()[0]
	wantArgs := []interface{}{1, []int{2, 3, 4}}
	if diff := testutil.Diff(rec.Args, wantArgs); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestWrapRecursive(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	var fibo func(int) int
	fibo = timetrack.Wrap(tr, func(n int) int {
		if n <= 1 {
			return n
		}
		return fibo(n-1) + fibo(n-2)
	}, timetrack.WithName("fibo"))

	if got := fibo(5); got != 5 {
		t.Fatalf("unexpected result %d", got)
	}
	if collector.Len() != 15 {
		t.Fatalf("fibo(5) makes 15 calls, got %d records", collector.Len())
	}

	records := collector.Records()
	last := records[len(records)-1]
	if last.Depth != 1 {
		t.Fatalf("the outermost call exits last, got depth %d", last.Depth)
	}
	for i, rec := range records {
		if rec.Function != "fibo" {
			t.Fatalf("record %d has unexpected function %q", i, rec.Function)
		}
		if rec.SelfNS > rec.TotalNS {
			t.Fatalf("record %d spends more time in its body than in the whole call: self %d total %d", i, rec.SelfNS, rec.TotalNS)
		}
	}
	if tr.Depth() != 0 {
		t.Fatalf("the stack should be balanced after the run, depth is %d", tr.Depth())
	}
}

func TestWrapMutualRecursion(t *testing.T) {
	fclk := fakeclock.NewFakeClock(epoch)
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector, timetrack.WithClock(fclk))

	var f, g func(int) int
	f = timetrack.Wrap(tr, func(n int) int {
		fclk.Increment(10 * time.Millisecond)
		if n <= 0 {
			return 0
		}
		return g(n - 1)
	}, timetrack.WithName("f"))
	g = timetrack.Wrap(tr, func(n int) int {
		fclk.Increment(20 * time.Millisecond)
		if n <= 0 {
			return 0
		}
		return f(n - 1)
	}, timetrack.WithName("g"))

	f(3)

	records := collector.Records()
	wantNames := []string{"g", "f", "g", "f"}
	for i, rec := range records {
		if rec.Function != wantNames[i] {
			t.Fatalf("record %d should be %q, got %q", i, wantNames[i], rec.Function)
		}
		if want := len(wantNames) - i; rec.Depth != want {
			t.Fatalf("record %d should have depth %d, got %d", i, want, rec.Depth)
		}
	}

	// f(3) -> g(2) -> f(1) -> g(0): each frame's self time is its own
	// increment, and each total includes everything below it.
	outermost := records[len(records)-1]
	if want := uint64(60 * time.Millisecond); outermost.TotalNS != want {
		t.Fatalf("unexpected total for the outermost call: got %d want %d", outermost.TotalNS, want)
	}
	if want := uint64(10 * time.Millisecond); outermost.SelfNS != want {
		t.Fatalf("unexpected self time for the outermost call: got %d want %d", outermost.SelfNS, want)
	}
}

func TestWrapError(t *testing.T) {
	fclk := fakeclock.NewFakeClock(epoch)
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector, timetrack.WithClock(fclk))

	errBoom := errors.New("boom")
	callee := timetrack.Wrap(tr, func() error {
		fclk.Increment(200 * time.Millisecond)
		return errBoom
	}, timetrack.WithName("callee"))
	caller := timetrack.Wrap(tr, func() error {
		fclk.Increment(100 * time.Millisecond)
		if err := callee(); err != nil {
			return fmt.Errorf("callee failed: %w", err)
		}
		return nil
	}, timetrack.WithName("caller"))

	err := caller()
	if !errors.Is(err, errBoom) {
		t.Fatalf("the failure should propagate unchanged, got %v", err)
	}

	records := collector.Records()
	if len(records) != 2 {
		t.Fatalf("both calls should be recorded, got %d records", len(records))
	}
	if records[0].Function != "callee" || records[1].Function != "caller" {
		t.Fatalf("the callee exits first, got %q then %q", records[0].Function, records[1].Function)
	}
	if want := uint64(200 * time.Millisecond); records[0].TotalNS != want {
		t.Fatalf("unexpected callee total: got %d want %d", records[0].TotalNS, want)
	}
	if want := uint64(100 * time.Millisecond); records[1].SelfNS != want {
		t.Fatalf("unexpected caller self time: got %d want %d", records[1].SelfNS, want)
	}
}

func TestWrapPanic(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	boom := timetrack.Wrap(tr, func() { panic("kaboom") }, timetrack.WithName("boom"))

	recovered := func() (v interface{}) {
		defer func() { v = recover() }()
		boom()
		return nil
	}()

	if recovered != "kaboom" {
		t.Fatalf("the panic should pass through unchanged, got %v", recovered)
	}
	if collector.Len() != 1 {
		t.Fatalf("a panicking call should still be recorded, got %d records", collector.Len())
	}
	if tr.Depth() != 0 {
		t.Fatalf("the stack should be balanced after the panic, depth is %d", tr.Depth())
	}
}

func TestWrapDisabled(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector, timetrack.Disabled())

	wrapped := timetrack.Wrap(tr, double)
	if reflect.ValueOf(wrapped).Pointer() != reflect.ValueOf(double).Pointer() {
		t.Fatal("a disabled tracker should return the function unchanged")
	}
	if got := wrapped(21); got != 42 {
		t.Fatalf("unexpected result %d", got)
	}
	if collector.Len() != 0 {
		t.Fatalf("a disabled tracker should not record, got %d records", collector.Len())
	}
}

func TestWrapNotAFunction(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("wrapping a non-function should panic")
		}
	}()
	timetrack.Wrap(timetrack.New(nil), 42)
}
