// Package storage implements the multipart upload protocol on top of S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/bitrise-io/s3-dir-uploader/multipart"
)

// S3Store is a multipart.Store backed by one bucket.
type S3Store struct {
	client S3API
	bucket string
	logger log.Logger
}

var _ multipart.Store = (*S3Store)(nil)

// NewS3Store ...
func NewS3Store(client S3API, bucket string, logger log.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Bucket returns the destination bucket.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// CreateSession starts a multipart upload for key.
func (s *S3Store) CreateSession(ctx context.Context, key string, opts multipart.CreateOptions) (multipart.SessionID, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	output, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", newObjectError("CreateMultipartUpload", s.bucket, key, err)
	}
	if output.UploadId == nil || *output.UploadId == "" {
		return "", newObjectError("CreateMultipartUpload", s.bucket, key, errors.New("no upload ID in response"))
	}

	return multipart.SessionID(*output.UploadId), nil
}

// UploadPart sends size bytes of body as the given part.
func (s *S3Store) UploadPart(
	ctx context.Context,
	key string,
	id multipart.SessionID,
	partNumber int32,
	body io.ReadSeeker,
	size int64,
) (multipart.ETag, error) {
	output, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(string(id)),
		PartNumber:    aws.Int32(partNumber),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", newObjectError("UploadPart", s.bucket, key, fmt.Errorf("part %d: %w", partNumber, err))
	}
	if output.ETag == nil || *output.ETag == "" {
		return "", newObjectError("UploadPart", s.bucket, key, fmt.Errorf("part %d: no ETag in response", partNumber))
	}

	return multipart.ETag(*output.ETag), nil
}

// CompleteSession assembles the object from parts.
// S3 rejects a completion without parts, so an empty object is completed from a single empty part.
func (s *S3Store) CompleteSession(ctx context.Context, key string, id multipart.SessionID, parts []multipart.PartResult) (string, error) {
	if len(parts) == 0 {
		s.logger.Debugf("Uploading empty part for zero-length object %s", key)

		etag, err := s.UploadPart(ctx, key, id, 1, bytes.NewReader(nil), 0)
		if err != nil {
			return "", err
		}
		parts = []multipart.PartResult{{PartNumber: 1, ETag: etag}}
	}

	completed := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(string(part.ETag)),
			PartNumber: aws.Int32(part.PartNumber),
		})
	}

	output, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(string(id)),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return "", newObjectError("CompleteMultipartUpload", s.bucket, key, err)
	}

	return aws.ToString(output.ETag), nil
}

// AbortSession discards the session and its uploaded parts.
// A session that no longer exists counts as aborted.
func (s *S3Store) AbortSession(ctx context.Context, key string, id multipart.SessionID) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(string(id)),
	})
	if err != nil {
		if IsNoSuchUpload(err) {
			s.logger.Debugf("Upload %s of %s is already gone", id, key)
			return nil
		}
		return newObjectError("AbortMultipartUpload", s.bucket, key, err)
	}

	return nil
}
