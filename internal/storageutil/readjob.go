package storageutil

type (
	// ReadJob is a storage read executed by a ReadWorker.
	ReadJob interface {
		Read()
	}

	// ReadJobResult is the outcome of a ReadJob.
	ReadJobResult interface {
		Error() error
	}
)

// ReadWorker runs jobs until the channel is closed.
func ReadWorker(jobs <-chan ReadJob) {
	for job := range jobs {
		job.Read()
	}
}
