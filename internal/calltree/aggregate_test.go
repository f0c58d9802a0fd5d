package calltree

import (
	"testing"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/testutil"
)

func TestAggregatorToMetrics(t *testing.T) {
	ma := NewAggregator(2, 5)

	ma.AddRecords([]timetrack.Record{
		{Function: "encode", Package: "codec", SelfNS: 100},
		{Function: "encode", Package: "codec", SelfNS: 100},
		{Function: "flush", Package: "sink", SelfNS: 50},
	}, "run-1")
	ma.AddRecords([]timetrack.Record{
		{Function: "encode", Package: "codec", SelfNS: 100},
		{Function: "flush", Package: "sink", SelfNS: 260},
		{Function: "parse", Package: "codec", SelfNS: 10},
	}, "run-2")

	got := ma.ToMetrics()
	if len(got) != 2 {
		t.Fatalf("the cap should keep the two heaviest functions, got %d", len(got))
	}
	if got[0].StdDev == 0 {
		t.Fatal("two different flush self times should spread")
	}
	got[0].StdDev = 0

	want := []FunctionMetrics{
		{
			Name:        "flush",
			Package:     "sink",
			Fingerprint: fingerprint("sink", "flush"),
			P75:         260,
			P95:         260,
			P99:         260,
			Avg:         155,
			Sum:         310,
			Count:       2,
			Worst:       "run-2",
			Examples:    []string{"run-1", "run-2"},
		},
		{
			Name:        "encode",
			Package:     "codec",
			Fingerprint: fingerprint("codec", "encode"),
			P75:         100,
			P95:         100,
			P99:         100,
			Avg:         100,
			Sum:         300,
			Count:       3,
			Worst:       "run-1",
			Examples:    []string{"run-1", "run-2"},
		},
	}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestAggregatorWorstRun(t *testing.T) {
	ma := NewAggregator(10, 1)

	ma.AddRecords([]timetrack.Record{{Function: "encode", SelfNS: 300}}, "run-1")
	ma.AddRecords([]timetrack.Record{{Function: "encode", SelfNS: 500}}, "run-2")
	ma.AddRecords([]timetrack.Record{{Function: "encode", SelfNS: 400}}, "run-3")

	metrics := ma.ToMetrics()
	if len(metrics) != 1 {
		t.Fatalf("expected one function, got %d", len(metrics))
	}
	if metrics[0].Worst != "run-2" {
		t.Fatalf("the worst run should be the one with the highest self time, got %q", metrics[0].Worst)
	}
	if diff := testutil.Diff(metrics[0].Examples, []string{"run-1"}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}
