package report

import (
	"context"

	"gocloud.dev/blob"

	"github.com/stackclock/timetrack/internal/storageutil"
)

type (
	ReadJob struct {
		Ctx     context.Context
		Storage *blob.Bucket
		RunID   string
		Result  chan<- storageutil.ReadJobResult
	}

	ReadJobResult struct {
		Err    error
		Report Report
	}
)

func (job ReadJob) Read() {
	// keep the run ID on the result even when the read fails
	r := Report{RunID: job.RunID}
	err := storageutil.UnmarshalCompressed(job.Ctx, job.Storage, StoragePath(job.RunID), &r)
	job.Result <- ReadJobResult{Err: err, Report: r}
}

func (result ReadJobResult) Error() error {
	return result.Err
}
