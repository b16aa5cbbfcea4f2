package storage

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

const noSuchUploadCode = "NoSuchUpload"

// Error is a failed S3 operation on one object.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the S3 error code of the failure, or an empty string if the
// failure did not come from the service.
func (e *Error) Code() string {
	var apiError smithy.APIError
	if errors.As(e.Err, &apiError) {
		return apiError.ErrorCode()
	}
	return ""
}

func newObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// IsNoSuchUpload reports whether err means the upload session does not exist (anymore).
func IsNoSuchUpload(err error) bool {
	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		return apiError.ErrorCode() == noSuchUploadCode
	}
	return false
}
