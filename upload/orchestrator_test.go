package upload_test

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitrise-io/s3-dir-uploader/internal/testutil"
	"github.com/bitrise-io/s3-dir-uploader/multipart"
	"github.com/bitrise-io/s3-dir-uploader/upload"
)

const testChunkSize = 5_000_000

func testConfig() multipart.Config {
	return multipart.DefaultConfig(testChunkSize, 64*1024)
}

func createJobs(t *testing.T, sizes map[string]int) []multipart.Job {
	dir := t.TempDir()

	var names []string
	for name := range sizes {
		names = append(names, name)
	}
	sort.Strings(names)

	var jobs []multipart.Job
	for _, name := range names {
		jobs = append(jobs, multipart.Job{
			SourcePath:     testutil.WriteFile(t, dir, name, sizes[name]),
			DestinationKey: "prefix/" + name,
		})
	}
	return jobs
}

func partNumbers(result *multipart.Result) []int32 {
	numbers := []int32{}
	for _, part := range result.Parts {
		numbers = append(numbers, part.PartNumber)
	}
	return numbers
}

func TestOrchestrator_Run(t *testing.T) {
	jobs := createJobs(t, map[string]int{
		"a.bin": 0,
		"b.bin": 1,
		"c.bin": 10_000_001,
	})
	store := testutil.NewFakeStore()

	report := upload.NewOrchestrator(store, testConfig(), 2, log.NewLogger()).Run(context.Background(), jobs)

	require.NoError(t, report.Err())
	require.Len(t, report.Outcomes, 3)
	assert.Len(t, report.Succeeded(), 3)
	assert.Empty(t, report.Failed())
	assert.Equal(t, int64(10_000_002), report.UploadedBytes())

	wantParts := map[string][]int32{
		"prefix/a.bin": {},
		"prefix/b.bin": {1},
		"prefix/c.bin": {1, 2, 3},
	}
	for _, outcome := range report.Outcomes {
		require.NotNil(t, outcome.Result)
		key := outcome.Job.DestinationKey
		assert.Equal(t, wantParts[key], partNumbers(outcome.Result), key)

		object, ok := store.Object(key)
		require.True(t, ok, key)
		assert.Equal(t, testutil.Content(int(outcome.Result.Size)), object, key)
	}

	// 3 jobs on 2 workers: the first worker gets 2 jobs, the second one the rest.
	assert.Equal(t, []int{0, 0, 1}, []int{report.Outcomes[0].WorkerIndex, report.Outcomes[1].WorkerIndex, report.Outcomes[2].WorkerIndex})
	assert.Equal(t, 0, store.OpenSessions())
}

func TestOrchestrator_Run_FailureIsIsolated(t *testing.T) {
	jobs := createJobs(t, map[string]int{
		"a.bin": 10,
		"b.bin": 10_000_001,
		"c.bin": 20,
		"d.bin": 30,
	})
	store := testutil.NewFakeStore()
	store.UploadErr = func(key string, partNumber int32) error {
		if key == "prefix/b.bin" && partNumber == 2 {
			return errors.New("internal error")
		}
		return nil
	}

	report := upload.NewOrchestrator(store, testConfig(), 2, log.NewLogger()).Run(context.Background(), jobs)

	require.Len(t, report.Outcomes, 4)
	require.Len(t, report.Failed(), 1)
	assert.Len(t, report.Succeeded(), 3)

	failed := report.Failed()[0]
	assert.Equal(t, "prefix/b.bin", failed.Job.DestinationKey)
	assert.Nil(t, failed.Result)

	err := report.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Base(failed.Job.SourcePath))
	assert.Contains(t, err.Error(), "internal error")

	assert.Equal(t, 1, store.Count(testutil.OpAbort, "prefix/b.bin"))
	assert.Equal(t, 0, store.Count(testutil.OpComplete, "prefix/b.bin"))
	for _, key := range []string{"prefix/a.bin", "prefix/c.bin", "prefix/d.bin"} {
		_, ok := store.Object(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 0, store.OpenSessions())
}

func TestOrchestrator_Run_MoreWorkersThanJobs(t *testing.T) {
	jobs := createJobs(t, map[string]int{"a.bin": 1, "b.bin": 2})
	store := testutil.NewFakeStore()

	report := upload.NewOrchestrator(store, testConfig(), 8, log.NewLogger()).Run(context.Background(), jobs)

	require.NoError(t, report.Err())
	assert.Len(t, report.Succeeded(), 2)
}

func TestOrchestrator_Run_NoJobs(t *testing.T) {
	store := testutil.NewFakeStore()

	report := upload.NewOrchestrator(store, testConfig(), 3, log.NewLogger()).Run(context.Background(), nil)

	assert.NoError(t, report.Err())
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, store.Calls())
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	jobs := createJobs(t, map[string]int{"a.bin": 1, "b.bin": 2, "c.bin": 3})
	store := testutil.NewFakeStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := upload.NewOrchestrator(store, testConfig(), 2, log.NewLogger()).Run(ctx, jobs)

	require.Len(t, report.Failed(), 3)
	for _, outcome := range report.Failed() {
		assert.True(t, errors.Is(outcome.Err, context.Canceled))
	}
	assert.Empty(t, store.Calls())
}
