// Package upload fans a list of upload jobs out over a fixed set of workers.
package upload

import (
	"context"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/bitrise-io/s3-dir-uploader/multipart"
	"github.com/bitrise-io/s3-dir-uploader/worker"
)

// Orchestrator uploads jobs concurrently. Jobs are split statically between the
// workers, and every worker uploads its jobs one after the other.
type Orchestrator struct {
	store   multipart.Store
	config  multipart.Config
	workers int
	logger  log.Logger
}

// NewOrchestrator ...
func NewOrchestrator(store multipart.Store, config multipart.Config, workers int, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		config:  config,
		workers: workers,
		logger:  logger,
	}
}

// Run uploads every job and waits for all of them. A failed job does not affect
// the others; the Report holds one Outcome per job.
func (o *Orchestrator) Run(ctx context.Context, jobs []multipart.Job) Report {
	start := time.Now()

	assignments := worker.Partition(jobs, o.workers)
	for _, assignment := range assignments {
		o.logger.Debugf("Worker %d: %d files", assignment.WorkerIndex, len(assignment.Items))
	}

	o.logger.Infof("Uploading %d files with %d workers", len(jobs), o.workers)

	pool := worker.NewPool[multipart.Job, *multipart.Result](o.logger)
	results := pool.Run(ctx, assignments, func(workerIndex int) worker.Handler[multipart.Job, *multipart.Result] {
		uploader := multipart.NewFileUploader(o.store, nil, o.config, o.logger)
		return uploader.Upload
	})

	outcomes := make([]Outcome, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, Outcome{
			Job:         result.Item,
			Result:      result.Value,
			Err:         result.Err,
			WorkerIndex: result.WorkerIndex,
		})
	}

	return Report{
		Outcomes: outcomes,
		Duration: time.Since(start),
	}
}
