// Package worker statically partitions work items over a fixed number of
// workers and runs every partition on its own goroutine.
package worker

import "fmt"

// Assignment is the ordered slice of items owned by one worker for the whole run.
type Assignment[T any] struct {
	WorkerIndex int
	Items       []T
}

// Partition splits items into exactly workers contiguous assignments.
// Every worker but the last gets ceil(len(items)/workers) items, the last one
// gets the remainder, which may be empty. Concatenating the assignments in
// worker order yields items.
func Partition[T any](items []T, workers int) []Assignment[T] {
	if workers <= 0 {
		panic(fmt.Sprintf("worker: worker count must be positive, got %d", workers))
	}

	targetSize := (len(items) + workers - 1) / workers

	assignments := make([]Assignment[T], workers)
	start := 0
	for i := 0; i < workers; i++ {
		end := start + targetSize
		if i == workers-1 || end > len(items) {
			end = len(items)
		}

		assigned := make([]T, end-start)
		copy(assigned, items[start:end])
		assignments[i] = Assignment[T]{
			WorkerIndex: i,
			Items:       assigned,
		}

		start = end
	}

	return assignments
}
