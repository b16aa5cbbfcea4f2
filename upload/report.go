package upload

import (
	"errors"
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/bitrise-io/s3-dir-uploader/multipart"
)

// Outcome is the terminal state of one job.
type Outcome struct {
	Job         multipart.Job
	Result      *multipart.Result
	Err         error
	WorkerIndex int
}

// Report collects the outcome of every job of a run.
type Report struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Succeeded ...
func (r Report) Succeeded() []Outcome {
	var outcomes []Outcome
	for _, outcome := range r.Outcomes {
		if outcome.Err == nil {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// Failed ...
func (r Report) Failed() []Outcome {
	var outcomes []Outcome
	for _, outcome := range r.Outcomes {
		if outcome.Err != nil {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// Err joins the error of every failed job, or returns nil if all jobs succeeded.
func (r Report) Err() error {
	var errs []error
	for _, outcome := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", outcome.Job.SourcePath, outcome.Err))
	}
	return errors.Join(errs...)
}

// UploadedBytes is the total size of the successfully uploaded files.
func (r Report) UploadedBytes() int64 {
	var total int64
	for _, outcome := range r.Succeeded() {
		total += outcome.Result.Size
	}
	return total
}

// Print logs every failed job and a summary line.
func (r Report) Print(logger log.Logger) {
	failed := r.Failed()

	logger.Println()
	for _, outcome := range failed {
		logger.Errorf("Failed to upload %s: %s", outcome.Job.SourcePath, outcome.Err)
	}

	summary := fmt.Sprintf("Uploaded %d/%d files (%s) in %s",
		len(r.Outcomes)-len(failed), len(r.Outcomes),
		units.HumanSizeWithPrecision(float64(r.UploadedBytes()), 3), r.Duration.Round(time.Millisecond))

	if len(failed) > 0 {
		logger.Warnf("%s, %d failed", summary, len(failed))
	} else {
		logger.Donef("%s", summary)
	}
}
