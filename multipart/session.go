package multipart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
)

// abortTimeout bounds the abort call when no call timeout is configured.
const abortTimeout = time.Minute

var (
	// ErrSessionClosed is returned by operations on a completed or aborted session.
	ErrSessionClosed = errors.New("upload session is closed")

	// ErrOutOfOrderPart is returned when parts are not uploaded in ascending range order.
	ErrOutOfOrderPart = errors.New("part uploaded out of order")

	// ErrIncompleteParts is returned when completing a session that misses planned parts.
	ErrIncompleteParts = errors.New("not every planned part is uploaded")
)

// State is the lifecycle state of a Session.
type State int

// Session states.
const (
	StateCreated State = iota
	StateUploading
	StateCompleting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateUploading:
		return "uploading"
	case StateCompleting:
		return "completing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one multipart upload of a single file.
// A Session is owned by the worker driving it and is not safe for concurrent use.
type Session struct {
	store  Store
	reader RangeReader
	config Config
	logger log.Logger
	stats  *Stats

	job   Job
	id    SessionID
	parts []PartResult
	state State
}

// OpenSession creates the remote upload session for job.
// Nothing is left to clean up when it fails.
func OpenSession(ctx context.Context, store Store, reader RangeReader, job Job, config Config, logger log.Logger) (*Session, error) {
	var id SessionID
	err := retry.Times(config.CreateRetries).Wait(config.CreateRetryWait).TryWithAbort(func(attempt uint) (error, bool) {
		if attempt > 0 {
			logger.Warnf("Retrying upload session creation for %s (attempt %d/%d)", job.DestinationKey, attempt+1, config.CreateRetries+1)
		}

		callCtx, cancel := withCallTimeout(ctx, config.CallTimeout)
		defer cancel()

		created, err := store.CreateSession(callCtx, job.DestinationKey, CreateOptions{ContentType: job.ContentType})
		if err != nil {
			return err, ctx.Err() != nil
		}

		id = created
		return nil, true
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("Created upload session %s for %s", id, job.DestinationKey)

	return &Session{
		store:  store,
		reader: reader,
		config: config,
		logger: logger,
		job:    job,
		id:     id,
		parts:  []PartResult{},
		state:  StateCreated,
	}, nil
}

// ID returns the remote session identifier.
func (s *Session) ID() SessionID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Parts returns a copy of the parts uploaded so far, ordered by part number.
func (s *Session) Parts() []PartResult {
	parts := make([]PartResult, len(s.parts))
	copy(parts, s.parts)
	return parts
}

// UploadPart reads r from the source file and uploads it as part r.Index+1.
// Ranges must arrive in ascending index order without gaps.
// On failure the session is aborted before the error is returned.
func (s *Session) UploadPart(ctx context.Context, r ChunkRange) (PartResult, error) {
	if s.closed() {
		return PartResult{}, ErrSessionClosed
	}

	if r.Index != len(s.parts) {
		err := fmt.Errorf("got part %d, expected part %d: %w", r.PartNumber(), len(s.parts)+1, ErrOutOfOrderPart)
		return PartResult{}, s.fail(ctx, err)
	}

	s.state = StateUploading

	start := time.Now()
	etag, err := s.uploadPart(ctx, r)
	if err != nil {
		return PartResult{}, s.fail(ctx, fmt.Errorf("upload part %d: %w", r.PartNumber(), err))
	}

	if s.stats != nil {
		s.stats.Update(time.Since(start), r.Length)
	}

	part := PartResult{
		PartNumber: r.PartNumber(),
		ETag:       etag,
	}
	s.parts = append(s.parts, part)

	return part, nil
}

func (s *Session) uploadPart(ctx context.Context, r ChunkRange) (ETag, error) {
	body, err := s.reader.Open(s.job.SourcePath, r.Offset, r.Length)
	if err != nil {
		return "", fmt.Errorf("read range: %w", err)
	}
	defer func() {
		if err := body.Close(); err != nil {
			s.logger.Warnf("Failed to close %s: %s", s.job.SourcePath, err)
		}
	}()

	callCtx, cancel := withCallTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	return s.store.UploadPart(callCtx, s.job.DestinationKey, s.id, r.PartNumber(), body, r.Length)
}

// Complete assembles the object from the uploaded parts.
// planned is the number of ranges in the file's plan; every one of them must be uploaded.
// It returns the ETag of the assembled object.
func (s *Session) Complete(ctx context.Context, planned int) (string, error) {
	if s.closed() {
		return "", ErrSessionClosed
	}

	if len(s.parts) != planned {
		err := fmt.Errorf("%d of %d parts uploaded: %w", len(s.parts), planned, ErrIncompleteParts)
		return "", s.fail(ctx, err)
	}

	s.state = StateCompleting

	parts := s.Parts()
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})

	callCtx, cancel := withCallTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	objectETag, err := s.store.CompleteSession(callCtx, s.job.DestinationKey, s.id, parts)
	if err != nil {
		return "", s.fail(ctx, fmt.Errorf("complete session: %w", err))
	}

	s.state = StateDone
	s.logger.Debugf("Completed upload session %s for %s with %d parts", s.id, s.job.DestinationKey, len(parts))

	return objectETag, nil
}

// Abort discards the remote session. It runs even when ctx is already cancelled.
// Failures are logged and returned, but the session is closed either way.
func (s *Session) Abort(ctx context.Context) error {
	if s.closed() {
		return ErrSessionClosed
	}

	s.state = StateAborted
	s.logger.Warnf("Aborting upload session %s for %s", s.id, s.job.DestinationKey)

	timeout := s.config.CallTimeout
	if timeout <= 0 {
		timeout = abortTimeout
	}
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.store.AbortSession(abortCtx, s.job.DestinationKey, s.id); err != nil {
		s.logger.Warnf("Failed to abort upload session %s for %s: %s", s.id, s.job.DestinationKey, err)
		return fmt.Errorf("abort session: %w", err)
	}

	return nil
}

func (s *Session) fail(ctx context.Context, err error) error {
	_ = s.Abort(ctx)
	return err
}

func (s *Session) closed() bool {
	return s.state == StateDone || s.state == StateAborted
}

func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
