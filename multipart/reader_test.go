package multipart_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitrise-io/s3-dir-uploader/internal/testutil"
	"github.com/bitrise-io/s3-dir-uploader/multipart"
)

func TestFileRangeReader_Open(t *testing.T) {
	dir := t.TempDir()
	pth := testutil.WriteFile(t, dir, "data.bin", 1000)
	content := testutil.Content(1000)

	tests := []struct {
		name       string
		bufferSize int
		offset     int64
		length     int64
	}{
		{name: "whole file", bufferSize: 4096, offset: 0, length: 1000},
		{name: "middle range", bufferSize: 4096, offset: 300, length: 200},
		{name: "tail range", bufferSize: 4096, offset: 990, length: 10},
		{name: "buffer smaller than range", bufferSize: 16, offset: 7, length: 900},
		{name: "empty range", bufferSize: 16, offset: 1000, length: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := multipart.NewFileRangeReader(tt.bufferSize)

			stream, err := reader.Open(pth, tt.offset, tt.length)
			require.NoError(t, err)
			defer stream.Close()

			got, err := io.ReadAll(stream)
			require.NoError(t, err)
			assert.Equal(t, content[tt.offset:tt.offset+tt.length], got)
		})
	}
}

func TestFileRangeReader_RangeBeyondFile(t *testing.T) {
	pth := testutil.WriteFile(t, t.TempDir(), "data.bin", 100)

	_, err := multipart.NewFileRangeReader(64).Open(pth, 50, 51)

	require.Error(t, err)
	assert.True(t, errors.Is(err, multipart.ErrShortRange))
}

func TestFileRangeReader_MissingFile(t *testing.T) {
	_, err := multipart.NewFileRangeReader(64).Open(filepath.Join(t.TempDir(), "missing"), 0, 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileRangeReader_FileTruncatedWhileReading(t *testing.T) {
	pth := testutil.WriteFile(t, t.TempDir(), "data.bin", 1000)

	stream, err := multipart.NewFileRangeReader(16).Open(pth, 0, 1000)
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, os.Truncate(pth, 500))

	_, err = io.ReadAll(stream)
	require.Error(t, err)
	assert.True(t, errors.Is(err, multipart.ErrShortRange))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestFileRangeReader_SeekRewinds(t *testing.T) {
	pth := testutil.WriteFile(t, t.TempDir(), "data.bin", 500)
	content := testutil.Content(500)

	stream, err := multipart.NewFileRangeReader(32).Open(pth, 100, 300)
	require.NoError(t, err)
	defer stream.Close()

	first, err := io.ReadAll(stream)
	require.NoError(t, err)

	pos, err := stream.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(300), pos)

	end, err := stream.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(300), end)

	pos, err = stream.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	second, err := io.ReadAll(stream)
	require.NoError(t, err)

	assert.Equal(t, content[100:400], first)
	assert.Equal(t, first, second)

	pos, err = stream.Seek(-50, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(250), pos)

	tail, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, content[350:400], tail)

	_, err = stream.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}
