package multipart

import (
	"fmt"
	"time"
)

// MinPartSize is the smallest size S3 accepts for any part but the last one.
const MinPartSize = 5 * 1024 * 1024

// Config holds configuration for uploading a single file.
type Config struct {
	// ChunkSize is the size of every part except the last one.
	ChunkSize int64

	// ReadBufferSize bounds the read-ahead buffer used while streaming one part.
	ReadBufferSize int

	// CallTimeout is the deadline of each remote call. Zero disables it.
	CallTimeout time.Duration

	// CreateRetries is the number of extra attempts for creating a session.
	// Retried creations can leave orphaned sessions behind on the remote side.
	CreateRetries uint

	// CreateRetryWait is the wait between session creation attempts.
	CreateRetryWait time.Duration
}

// DefaultConfig returns a configuration with the given sizes and default call settings.
func DefaultConfig(chunkSize int64, readBufferSize int) Config {
	return Config{
		ChunkSize:       chunkSize,
		ReadBufferSize:  readBufferSize,
		CallTimeout:     5 * time.Minute,
		CreateRetries:   0,
		CreateRetryWait: 2 * time.Second,
	}
}

// Validate returns an error if the configuration cannot drive an upload.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("read buffer size must be positive, got %d", c.ReadBufferSize)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must not be negative, got %s", c.CallTimeout)
	}
	return nil
}
