package multipart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bitrise-io/s3-dir-uploader/internal"
)

// ErrShortRange is returned when a file holds fewer bytes than the requested range.
var ErrShortRange = errors.New("file is shorter than the requested range")

// RangeReader provides byte ranges of local files for upload.
type RangeReader interface {
	// Open returns a stream yielding exactly length bytes of path starting at offset.
	// The stream fails instead of short reading if the file no longer holds the range.
	Open(path string, offset, length int64) (io.ReadSeekCloser, error)
}

// FileRangeReader reads ranges from files on disk through a bounded read-ahead buffer.
// A FileRangeReader holds no per-range state; every opened stream owns its file handle.
type FileRangeReader struct {
	os         internal.OsProxy
	bufferSize int
}

// NewFileRangeReader creates a RangeReader that reads from disk using buffers of bufferSize bytes.
func NewFileRangeReader(bufferSize int) *FileRangeReader {
	return newFileRangeReader(internal.RealOS{}, bufferSize)
}

func newFileRangeReader(osProxy internal.OsProxy, bufferSize int) *FileRangeReader {
	return &FileRangeReader{
		os:         osProxy,
		bufferSize: bufferSize,
	}
}

// Open opens path and positions a stream at offset.
func (r *FileRangeReader) Open(path string, offset, length int64) (io.ReadSeekCloser, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("invalid range: offset %d, length %d", offset, length)
	}

	file, err := r.os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if info.Size() < offset+length {
		_ = file.Close()
		return nil, fmt.Errorf("range [%d, %d) of %s, file size is %d: %w",
			offset, offset+length, path, info.Size(), ErrShortRange)
	}

	section := io.NewSectionReader(file, offset, length)

	return &rangeStream{
		file:    file,
		section: section,
		buf:     bufio.NewReaderSize(section, r.bufferSize),
		length:  length,
	}, nil
}

// rangeStream is a seekable view of one file range with a fixed size read-ahead buffer.
type rangeStream struct {
	file    *os.File
	section *io.SectionReader
	buf     *bufio.Reader
	length  int64
	pos     int64
}

func (s *rangeStream) Read(p []byte) (int, error) {
	n, err := s.buf.Read(p)
	s.pos += int64(n)

	if err == io.EOF && s.pos < s.length {
		return n, fmt.Errorf("read %d of %d bytes: %w: %w", s.pos, s.length, ErrShortRange, io.ErrUnexpectedEOF)
	}

	return n, err
}

// Seek moves the stream within the range. Seeking to the current position keeps the buffer.
func (s *rangeStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.length + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}

	if target < 0 {
		return 0, fmt.Errorf("seek: negative position %d", target)
	}

	if target == s.pos {
		return target, nil
	}

	if _, err := s.section.Seek(target, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek: %w", err)
	}
	s.buf.Reset(s.section)
	s.pos = target

	return target, nil
}

// Close closes the underlying file.
func (s *rangeStream) Close() error {
	return s.file.Close()
}
