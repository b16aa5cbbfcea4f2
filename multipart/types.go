// Package multipart uploads single files through the multipart upload protocol:
// it plans byte ranges, reads them with a bounded buffer and drives one upload
// session per file from creation to completion or abort.
package multipart

import (
	"context"
	"io"
	"time"
)

// MaxParts is the largest part number S3 accepts for a single upload.
// The planner does not enforce it; FileUploader only warns when a plan exceeds it.
const MaxParts = 10000

// SessionID is the opaque identifier the remote store returns for an upload session.
type SessionID string

// ETag is the opaque integrity tag the remote store returns for an uploaded part.
type ETag string

// Job is one file-to-destination-key upload task.
type Job struct {
	SourcePath     string
	DestinationKey string
	// ContentType is sent on session creation. Detected from the file content when empty.
	ContentType string
}

// ChunkRange is one contiguous byte range of a file.
type ChunkRange struct {
	Index  int
	Offset int64
	Length int64
}

// PartNumber returns the 1-based part number of the range.
func (r ChunkRange) PartNumber() int32 {
	return int32(r.Index + 1)
}

// PartResult is the outcome of uploading a single part.
type PartResult struct {
	PartNumber int32
	ETag       ETag
}

// CreateOptions holds object attributes set when a session is created.
type CreateOptions struct {
	ContentType string
}

// Store is the remote side of a multipart upload. The bucket is bound by the implementation.
type Store interface {
	// CreateSession starts a multipart upload for key.
	CreateSession(ctx context.Context, key string, opts CreateOptions) (SessionID, error)

	// UploadPart uploads exactly size bytes from body as the given part.
	// body may be rewound by the implementation.
	UploadPart(ctx context.Context, key string, id SessionID, partNumber int32, body io.ReadSeeker, size int64) (ETag, error)

	// CompleteSession assembles the object from parts, which must be sorted by part number.
	// It returns the ETag of the assembled object.
	CompleteSession(ctx context.Context, key string, id SessionID, parts []PartResult) (string, error)

	// AbortSession discards the session and the parts uploaded so far.
	AbortSession(ctx context.Context, key string, id SessionID) error
}

// Result represents the result of uploading one file.
type Result struct {
	Job        Job
	SessionID  SessionID
	Parts      []PartResult
	Size       int64
	ObjectETag string
	Duration   time.Duration
}
