package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/calltree"
	"github.com/stackclock/timetrack/internal/report"
	"github.com/stackclock/timetrack/internal/storageutil"
	"github.com/stackclock/timetrack/internal/testutil"
)

func TestRunPipeline(t *testing.T) {
	collector := new(timetrack.Collector)
	tr := timetrack.New(collector)

	runPipeline(tr, time.Millisecond, 2)

	if tr.Depth() != 0 {
		t.Fatalf("Expected a balanced run. Found depth: %d", tr.Depth())
	}

	type call struct {
		Function string
		Depth    int
	}
	calls := make([]call, 0, collector.Len())
	for _, r := range collector.Records() {
		calls = append(calls, call{Function: r.Function, Depth: r.Depth})
	}
	want := []call{
		{"fetch", 2},
		{"parse", 2},
		{"encode", 3},
		{"store", 2},
		{"fetch", 2},
		{"parse", 2},
		{"encode", 3},
		{"store", 2},
		{"process", 1},
	}
	if diff := testutil.Diff(calls, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}

	records := collector.Records()
	process := records[len(records)-1]
	for _, r := range records {
		if r.TotalNS < r.SelfNS {
			t.Fatalf("Expected total >= self for %s. Found: total=%d self=%d", r.Function, r.TotalNS, r.SelfNS)
		}
		if r.Depth > 1 && r.TotalNS > process.TotalNS {
			t.Fatalf("Expected %s to be contained in process. Found: total=%d process=%d", r.Function, r.TotalNS, process.TotalNS)
		}
	}
}

func TestWriteMetricsTable(t *testing.T) {
	metrics := []calltree.FunctionMetrics{
		{
			Name:  "fetch",
			Count: 2,
			Sum:   600000000,
			Avg:   300000000,
			P95:   400000000,
			Worst: "run-b",
		},
		{
			Name:    "parse",
			Package: "pipeline",
			Count:   1,
			Sum:     100000000,
			Avg:     100000000,
			P95:     100000000,
			Worst:   "run-a",
		},
	}

	var buf bytes.Buffer
	if err := writeMetricsTable(&buf, metrics); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	fields := make([][]string, 0, len(lines))
	for _, line := range lines {
		fields = append(fields, strings.Fields(line))
	}
	want := [][]string{
		{"FUNCTION", "COUNT", "SUM", "AVG", "P95", "WORST", "RUN"},
		{"fetch", "2", "600ms", "300ms", "400ms", "run-b"},
		{"pipeline.parse", "1", "100ms", "100ms", "100ms", "run-a"},
	}
	if diff := testutil.Diff(fields, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestRecord(t *testing.T) {
	env := testEnvironment(fileBlobBucket)
	env.config.WorkloadName = "pipeline"
	env.config.WorkloadScale = time.Millisecond
	env.config.WorkloadBatches = 1

	var out bytes.Buffer
	if err := env.record(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	mock := env.runsWriter.(*KafkaWriterMock)
	if len(mock.messages) != 1 {
		t.Fatalf("Expected 1 Kafka message. Found: %d", len(mock.messages))
	}
	var announcement RunKafkaMessage
	if err := json.Unmarshal(mock.messages[0].Value, &announcement); err != nil {
		t.Fatal(err)
	}
	if announcement.Name != "pipeline" {
		t.Fatalf("Expected run name pipeline. Found: %s", announcement.Name)
	}
	if announcement.RecordCount != 5 {
		t.Fatalf("Expected 5 records. Found: %d", announcement.RecordCount)
	}

	var stored report.Report
	err := storageutil.UnmarshalCompressed(
		context.Background(),
		fileBlobBucket,
		report.StoragePath(announcement.RunID),
		&stored,
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Records) != 5 {
		t.Fatalf("Expected 5 stored records. Found: %d", len(stored.Records))
	}

	rendered := out.String()
	if !strings.Contains(rendered, "process") {
		t.Fatalf("Expected the call tree to name the root call. Found: %q", rendered)
	}
	if !strings.Contains(rendered, "FUNCTION") {
		t.Fatalf("Expected the metrics table header. Found: %q", rendered)
	}
}
