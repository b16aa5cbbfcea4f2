package multipart

import (
	"context"
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"

	"github.com/bitrise-io/s3-dir-uploader/internal"
)

const defaultContentType = "application/octet-stream"

// FileUploader uploads files one at a time, each through its own Session.
// Parts of a file are uploaded strictly sequentially.
type FileUploader struct {
	store  Store
	reader RangeReader
	config Config
	logger log.Logger
	stats  *Stats
	os     internal.OsProxy
}

// NewFileUploader creates a FileUploader. reader can be nil, in which case
// a FileRangeReader with the configured buffer size is used.
func NewFileUploader(store Store, reader RangeReader, config Config, logger log.Logger) *FileUploader {
	if reader == nil {
		reader = NewFileRangeReader(config.ReadBufferSize)
	}

	return &FileUploader{
		store:  store,
		reader: reader,
		config: config,
		logger: logger,
		stats:  NewStats(),
		os:     internal.RealOS{},
	}
}

// Stats returns the part statistics of this uploader.
func (u *FileUploader) Stats() *Stats {
	return u.stats
}

// Upload plans job's source file, uploads every range and completes the session.
// Any failure after the session was created aborts it. Cancellation of ctx is
// checked between parts.
func (u *FileUploader) Upload(ctx context.Context, job Job) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upload cancelled: %w", err)
	}

	start := time.Now()

	info, err := u.os.Stat(job.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("source %s is not a regular file", job.SourcePath)
	}

	size := info.Size()
	ranges := Plan(size, u.config.ChunkSize)
	if len(ranges) > MaxParts {
		u.logger.Warnf("%s needs %d parts, more than the %d the service accepts; increase the chunk size",
			job.SourcePath, len(ranges), MaxParts)
	}

	if job.ContentType == "" {
		job.ContentType = u.detectContentType(job.SourcePath)
	}

	u.logger.Infof("Uploading %s (%s, %d parts) to %s",
		job.SourcePath, units.HumanSizeWithPrecision(float64(size), 3), len(ranges), job.DestinationKey)

	session, err := OpenSession(ctx, u.store, u.reader, job, u.config, u.logger)
	if err != nil {
		return nil, fmt.Errorf("create upload session: %w", err)
	}
	session.stats = u.stats

	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			u.logger.Warnf("Upload of %s interrupted after %d/%d parts", job.SourcePath, r.Index, len(ranges))
			_ = session.Abort(ctx)
			return nil, fmt.Errorf("upload cancelled: %w", err)
		}

		part, err := session.UploadPart(ctx, r)
		if err != nil {
			return nil, err
		}

		u.logger.Debugf("Uploaded part %d/%d of %s, ETag: %s [finished=%d] [avg=%v]",
			part.PartNumber, len(ranges), job.SourcePath, part.ETag,
			u.stats.FinishedCount(), u.stats.Average().Round(time.Millisecond))
	}

	objectETag, err := session.Complete(ctx, len(ranges))
	if err != nil {
		return nil, err
	}

	took := time.Since(start)
	u.logger.Donef("Uploaded %s in %s [avg part time: %v]", job.DestinationKey, took.Round(time.Millisecond), u.stats.Average().Round(time.Millisecond))

	return &Result{
		Job:        job,
		SessionID:  session.ID(),
		Parts:      session.Parts(),
		Size:       size,
		ObjectETag: objectETag,
		Duration:   took,
	}, nil
}

func (u *FileUploader) detectContentType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		u.logger.Debugf("Failed to detect content type of %s: %s", path, err)
		return defaultContentType
	}
	return mtype.String()
}
