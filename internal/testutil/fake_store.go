// Package testutil provides an in-memory multipart store and file fixtures for tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bitrise-io/s3-dir-uploader/multipart"
)

// Store operations recorded by FakeStore.
const (
	OpCreate   = "create"
	OpUpload   = "upload"
	OpComplete = "complete"
	OpAbort    = "abort"
)

// Call is one recorded FakeStore call.
type Call struct {
	Op          string
	Key         string
	SessionID   multipart.SessionID
	ContentType string
	PartNumber  int32
	Size        int64
	Parts       []multipart.PartResult
}

// FakeStore is an in-memory multipart.Store that records every call.
// Safe for concurrent use by several workers.
type FakeStore struct {
	// Failure hooks; a nil hook never fails.
	CreateErr   func(key string) error
	UploadErr   func(key string, partNumber int32) error
	CompleteErr func(key string) error
	AbortErr    func(key string) error

	mu       sync.Mutex
	calls    []Call
	nextID   int
	sessions map[multipart.SessionID]map[int32][]byte
	objects  map[string][]byte
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		sessions: map[multipart.SessionID]map[int32][]byte{},
		objects:  map[string][]byte{},
	}
}

// CreateSession ...
func (s *FakeStore) CreateSession(_ context.Context, key string, opts multipart.CreateOptions) (multipart.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpCreate, Key: key, ContentType: opts.ContentType})
	if s.CreateErr != nil {
		if err := s.CreateErr(key); err != nil {
			return "", err
		}
	}

	s.nextID++
	id := multipart.SessionID(fmt.Sprintf("session-%d", s.nextID))
	s.sessions[id] = map[int32][]byte{}
	s.calls[len(s.calls)-1].SessionID = id

	return id, nil
}

// UploadPart ...
func (s *FakeStore) UploadPart(_ context.Context, key string, id multipart.SessionID, partNumber int32, body io.ReadSeeker, size int64) (multipart.ETag, error) {
	data, readErr := io.ReadAll(body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpUpload, Key: key, SessionID: id, PartNumber: partNumber, Size: size})
	if s.UploadErr != nil {
		if err := s.UploadErr(key, partNumber); err != nil {
			return "", err
		}
	}
	if readErr != nil {
		return "", fmt.Errorf("read body: %w", readErr)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("body has %d bytes, declared %d", len(data), size)
	}

	parts, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("no such upload: %s", id)
	}
	parts[partNumber] = data

	return multipart.ETag(fmt.Sprintf("\"etag-%s-%d\"", id, partNumber)), nil
}

// CompleteSession ...
func (s *FakeStore) CompleteSession(_ context.Context, key string, id multipart.SessionID, parts []multipart.PartResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := make([]multipart.PartResult, len(parts))
	copy(recorded, parts)
	s.calls = append(s.calls, Call{Op: OpComplete, Key: key, SessionID: id, Parts: recorded})
	if s.CompleteErr != nil {
		if err := s.CompleteErr(key); err != nil {
			return "", err
		}
	}

	uploaded, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("no such upload: %s", id)
	}

	var object bytes.Buffer
	for i, part := range parts {
		if part.PartNumber != int32(i+1) {
			return "", fmt.Errorf("invalid part order: position %d has part %d", i, part.PartNumber)
		}
		data, ok := uploaded[part.PartNumber]
		if !ok {
			return "", fmt.Errorf("part %d was not uploaded", part.PartNumber)
		}
		object.Write(data)
	}

	delete(s.sessions, id)
	s.objects[key] = append([]byte{}, object.Bytes()...)

	return fmt.Sprintf("\"object-%s\"", id), nil
}

// AbortSession ...
func (s *FakeStore) AbortSession(_ context.Context, key string, id multipart.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpAbort, Key: key, SessionID: id})
	if s.AbortErr != nil {
		if err := s.AbortErr(key); err != nil {
			return err
		}
	}

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("no such upload: %s", id)
	}
	delete(s.sessions, id)

	return nil
}

// Calls returns every recorded call in order.
func (s *FakeStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallsFor returns the recorded calls for key in order.
func (s *FakeStore) CallsFor(key string) []Call {
	var calls []Call
	for _, call := range s.Calls() {
		if call.Key == key {
			calls = append(calls, call)
		}
	}
	return calls
}

// Count returns how many op calls were made for key.
func (s *FakeStore) Count(op, key string) int {
	count := 0
	for _, call := range s.CallsFor(key) {
		if call.Op == op {
			count++
		}
	}
	return count
}

// Object returns the assembled content of a completed upload.
func (s *FakeStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	return data, ok
}

// OpenSessions returns the number of sessions neither completed nor aborted.
func (s *FakeStore) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
