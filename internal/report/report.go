package report

import (
	"github.com/stackclock/timetrack"
	"github.com/stackclock/timetrack/internal/timeutil"
)

// StoragePrefix is the bucket prefix under which runs live.
const StoragePrefix = "reports/"

type (
	// Report is one stored run: the records a tracker emitted, innermost
	// first, plus identifying metadata.
	Report struct {
		RunID    string             `json:"run_id"`
		Name     string             `json:"name"`
		Received timeutil.Time      `json:"received"`
		Records  []timetrack.Record `json:"records"`
	}
)

// StoragePath returns the bucket path of a stored run.
func StoragePath(runID string) string {
	return StoragePrefix + runID
}

func (r Report) StoragePath() string {
	return StoragePath(r.RunID)
}

// DurationNS returns the summed wall-clock time of the run's top level
// calls.
func (r Report) DurationNS() uint64 {
	var total uint64
	for _, rec := range r.Records {
		if rec.Depth == 1 {
			total += rec.TotalNS
		}
	}
	return total
}
