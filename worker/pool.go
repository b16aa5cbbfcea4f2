package worker

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"golang.org/x/sync/errgroup"
)

// Handler processes one item on behalf of a worker.
type Handler[T, R any] func(ctx context.Context, item T) (R, error)

// Outcome is the result of processing one item.
type Outcome[T, R any] struct {
	WorkerIndex int
	Item        T
	Value       R
	Err         error
}

// Pool runs every assignment on its own goroutine. Workers share no mutable state:
// each one gets its own Handler and writes only its own outcomes.
type Pool[T, R any] struct {
	logger log.Logger
}

// NewPool creates a new Pool.
func NewPool[T, R any](logger log.Logger) *Pool[T, R] {
	return &Pool[T, R]{logger: logger}
}

// Run processes the items of every assignment in order and waits for all workers.
// newHandler is called once per worker before any worker starts.
// An item's error never stops its worker or the other workers. Once ctx is done,
// workers stop picking up items and report the remaining ones with the context error.
// The outcomes are grouped by worker, in assignment order.
func (p *Pool[T, R]) Run(ctx context.Context, assignments []Assignment[T], newHandler func(workerIndex int) Handler[T, R]) []Outcome[T, R] {
	handlers := make([]Handler[T, R], len(assignments))
	for i, assignment := range assignments {
		handlers[i] = newHandler(assignment.WorkerIndex)
	}

	results := make([][]Outcome[T, R], len(assignments))

	var g errgroup.Group
	for i := range assignments {
		g.Go(func() error {
			results[i] = p.runWorker(ctx, assignments[i], handlers[i])
			return nil
		})
	}
	_ = g.Wait()

	var outcomes []Outcome[T, R]
	for _, workerOutcomes := range results {
		outcomes = append(outcomes, workerOutcomes...)
	}

	return outcomes
}

func (p *Pool[T, R]) runWorker(ctx context.Context, assignment Assignment[T], handler Handler[T, R]) []Outcome[T, R] {
	outcomes := make([]Outcome[T, R], 0, len(assignment.Items))
	if len(assignment.Items) == 0 {
		return outcomes
	}

	p.logger.Debugf("Worker %d started with %d items", assignment.WorkerIndex, len(assignment.Items))

	for i, item := range assignment.Items {
		if err := ctx.Err(); err != nil {
			p.logger.Warnf("Worker %d stopped, %d items not started", assignment.WorkerIndex, len(assignment.Items)-i)
			for _, skipped := range assignment.Items[i:] {
				outcomes = append(outcomes, Outcome[T, R]{
					WorkerIndex: assignment.WorkerIndex,
					Item:        skipped,
					Err:         fmt.Errorf("not started: %w", err),
				})
			}
			break
		}

		value, err := safeHandle(ctx, handler, item)
		outcomes = append(outcomes, Outcome[T, R]{
			WorkerIndex: assignment.WorkerIndex,
			Item:        item,
			Value:       value,
			Err:         err,
		})
	}

	p.logger.Debugf("Worker %d finished", assignment.WorkerIndex)

	return outcomes
}

func safeHandle[T, R any](ctx context.Context, handler Handler[T, R], item T) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return handler(ctx, item)
}
