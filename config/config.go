// Package config resolves and validates the uploader settings.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/docker/go-units"

	"github.com/bitrise-io/s3-dir-uploader/discovery"
	"github.com/bitrise-io/s3-dir-uploader/multipart"
	"github.com/bitrise-io/s3-dir-uploader/storage"
)

// maxPartSize is the largest part S3 accepts.
const maxPartSize = 5 * 1024 * 1024 * 1024

// Config ...
type Config struct {
	Bucket     string
	SourceDir  string
	Prefix     string
	Workers    int
	ChunkSize  int64
	BufferSize int64

	Region          string
	EndpointURL     string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey Secret

	Include []string
	Exclude []string

	CallTimeout    time.Duration
	ConnectTimeout time.Duration
	CreateRetries  uint

	Verbose bool
}

// Validate returns every problem of the config joined into one error.
func (c Config) Validate(pathChecker pathutil.PathChecker) error {
	var errs []error

	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket is required"))
	}
	if c.Prefix == "" {
		errs = append(errs, errors.New("prefix is required"))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("buffer size must be positive, got %d", c.BufferSize))
	} else if c.BufferSize > math.MaxInt32 {
		errs = append(errs, fmt.Errorf("buffer size too large: %d", c.BufferSize))
	}
	if c.CallTimeout < 0 {
		errs = append(errs, fmt.Errorf("call timeout must not be negative, got %s", c.CallTimeout))
	}
	if c.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("connect timeout must not be negative, got %s", c.ConnectTimeout))
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		errs = append(errs, errors.New("access key ID and secret access key must be set together"))
	}
	if err := c.Filter().Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.SourceDir == "" {
		errs = append(errs, errors.New("source directory is required"))
	} else {
		exists, err := pathChecker.IsDirExists(c.SourceDir)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("check source directory: %w", err))
		case !exists:
			errs = append(errs, fmt.Errorf("source directory does not exist: %s", c.SourceDir))
		}
	}

	return errors.Join(errs...)
}

// Warnings lists settings that are valid but likely rejected by the remote store.
func (c Config) Warnings() []string {
	var warnings []string
	if c.ChunkSize > 0 && c.ChunkSize < multipart.MinPartSize {
		warnings = append(warnings, fmt.Sprintf("chunk size %s is below the S3 minimum part size of %s, multi-part files will fail to complete",
			units.BytesSize(float64(c.ChunkSize)), units.BytesSize(multipart.MinPartSize)))
	}
	if c.ChunkSize > maxPartSize {
		warnings = append(warnings, fmt.Sprintf("chunk size %s is above the S3 maximum part size of %s",
			units.BytesSize(float64(c.ChunkSize)), units.BytesSize(maxPartSize)))
	}
	return warnings
}

// MultipartConfig returns the upload engine settings.
func (c Config) MultipartConfig() multipart.Config {
	config := multipart.DefaultConfig(c.ChunkSize, int(c.BufferSize))
	config.CallTimeout = c.CallTimeout
	config.CreateRetries = c.CreateRetries
	return config
}

// ClientParams returns the S3 client settings.
func (c Config) ClientParams() storage.ClientParams {
	return storage.ClientParams{
		Bucket:          c.Bucket,
		Region:          c.Region,
		EndpointURL:     c.EndpointURL,
		UsePathStyle:    c.PathStyle,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: string(c.SecretAccessKey),
		ConnectTimeout:  c.ConnectTimeout,
	}
}

// Filter returns the file selection of the run.
func (c Config) Filter() discovery.Filter {
	return discovery.Filter{
		Include: c.Include,
		Exclude: c.Exclude,
	}
}

// Print logs the config, secrets masked.
func (c Config) Print(logger log.Logger) {
	logger.Println()
	logger.Infof("Config:")
	logger.Printf("- Bucket: %s", c.Bucket)
	logger.Printf("- SourceDir: %s", c.SourceDir)
	logger.Printf("- Prefix: %s", c.Prefix)
	logger.Printf("- Workers: %d", c.Workers)
	logger.Printf("- ChunkSize: %s", units.BytesSize(float64(c.ChunkSize)))
	logger.Printf("- BufferSize: %s", units.BytesSize(float64(c.BufferSize)))
	logger.Printf("- Region: %s", c.Region)
	logger.Printf("- EndpointURL: %s", c.EndpointURL)
	logger.Printf("- PathStyle: %t", c.PathStyle)
	logger.Printf("- AccessKeyID: %s", c.AccessKeyID)
	logger.Printf("- SecretAccessKey: %s", c.SecretAccessKey)
	logger.Printf("- Include: %v", c.Include)
	logger.Printf("- Exclude: %v", c.Exclude)
	logger.Printf("- CallTimeout: %s", c.CallTimeout)
	logger.Printf("- ConnectTimeout: %s", c.ConnectTimeout)
	logger.Printf("- CreateRetries: %d", c.CreateRetries)
	logger.Println()
}
