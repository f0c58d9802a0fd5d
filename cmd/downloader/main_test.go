package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"gocloud.dev/blob/memblob"

	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/report"
	"github.com/stackclock/timetrack/internal/storageutil"
	"github.com/stackclock/timetrack/internal/testutil"
	"github.com/stackclock/timetrack/internal/timeutil"
)

func testReport(runID string) report.Report {
	return report.Report{
		RunID:    runID,
		Name:     "pipeline",
		Received: timeutil.Time(time.Unix(100, 0).UTC()),
		Records: []timetrack.Record{
			{Function: "dodo", Depth: 2, TotalNS: 300000000, SelfNS: 300000000},
			{Function: "boo", Depth: 1, TotalNS: 900000000, SelfNS: 600000000},
		},
	}
}

func TestDownloadReports(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	for _, runID := range []string{"run-a", "run-b"} {
		r := testReport(runID)
		if err := storageutil.CompressedWrite(ctx, bucket, r.StoragePath(), r); err != nil {
			t.Fatal(err)
		}
	}

	destination := t.TempDir()
	err := os.WriteFile(filepath.Join(destination, "run-b.json"), []byte("already here"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	downloaded := downloadReports(ctx, bucket, []string{"run-a", "run-b", "missing"}, destination, 2)
	if downloaded != 1 {
		t.Fatalf("Expected 1 downloaded report. Found: %d", downloaded)
	}

	data, err := os.ReadFile(filepath.Join(destination, "run-a.json"))
	if err != nil {
		t.Fatal(err)
	}
	var r report.Report
	if err := gojson.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	if diff := testutil.Diff(testReport("run-a"), r); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}

	data, err = os.ReadFile(filepath.Join(destination, "run-b.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "already here" {
		t.Fatal("Expected existing downloads to be left alone")
	}

	_, err = os.Stat(filepath.Join(destination, "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected no file for a missing run. Found: %v", err)
	}
}

func TestReadRunIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.txt")
	err := os.WriteFile(path, []byte("run-a\n\n  run-b  \nrun-c"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	runIDs, err := readRunIDs(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := testutil.Diff([]string{"run-a", "run-b", "run-c"}, runIDs); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}
