package upload

import (
	"errors"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"

	"github.com/bitrise-io/s3-dir-uploader/multipart"
)

func TestReport(t *testing.T) {
	report := Report{
		Outcomes: []Outcome{
			{Job: multipart.Job{SourcePath: "/src/a"}, Result: &multipart.Result{Size: 10}},
			{Job: multipart.Job{SourcePath: "/src/b"}, Err: errors.New("boom")},
			{Job: multipart.Job{SourcePath: "/src/c"}, Result: &multipart.Result{Size: 5}},
		},
	}

	assert.Len(t, report.Succeeded(), 2)
	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, int64(15), report.UploadedBytes())
	assert.EqualError(t, report.Err(), "/src/b: boom")
	assert.NotPanics(t, func() { report.Print(log.NewLogger()) })

	assert.NoError(t, Report{}.Err())
}
