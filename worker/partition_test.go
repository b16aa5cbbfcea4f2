package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func sizes(assignments []Assignment[int]) []int {
	var s []int
	for _, assignment := range assignments {
		s = append(s, len(assignment.Items))
	}
	return s
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		workers   int
		wantSizes []int
	}{
		{name: "uneven", items: 10, workers: 3, wantSizes: []int{4, 4, 2}},
		{name: "even", items: 9, workers: 3, wantSizes: []int{3, 3, 3}},
		{name: "single worker", items: 5, workers: 1, wantSizes: []int{5}},
		{name: "more workers than items", items: 2, workers: 4, wantSizes: []int{1, 1, 0, 0}},
		{name: "last worker empty", items: 6, workers: 4, wantSizes: []int{2, 2, 2, 0}},
		{name: "no items", items: 0, workers: 3, wantSizes: []int{0, 0, 0}},
		{name: "one item per worker", items: 4, workers: 4, wantSizes: []int{1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := sequence(tt.items)

			assignments := Partition(items, tt.workers)

			require.Len(t, assignments, tt.workers)
			assert.Equal(t, tt.wantSizes, sizes(assignments))

			var concatenated []int
			for i, assignment := range assignments {
				assert.Equal(t, i, assignment.WorkerIndex)
				concatenated = append(concatenated, assignment.Items...)
			}
			if tt.items == 0 {
				assert.Empty(t, concatenated)
			} else {
				assert.Equal(t, items, concatenated)
			}
		})
	}
}

func TestPartition_NeverOversubscribesEarlyWorkers(t *testing.T) {
	for items := 0; items <= 60; items++ {
		for workers := 1; workers <= 12; workers++ {
			assignments := Partition(sequence(items), workers)
			require.Len(t, assignments, workers)

			target := (items + workers - 1) / workers
			total := 0
			for _, assignment := range assignments {
				require.LessOrEqual(t, len(assignment.Items), target, "items %d, workers %d", items, workers)
				total += len(assignment.Items)
			}
			require.Equal(t, items, total)
		}
	}
}

func TestPartition_DoesNotAliasInput(t *testing.T) {
	items := sequence(4)
	assignments := Partition(items, 2)

	items[0] = 100

	assert.Equal(t, []int{0, 1}, assignments[0].Items)
}

func TestPartition_InvalidWorkerCount(t *testing.T) {
	assert.Panics(t, func() { Partition(sequence(3), 0) })
}
