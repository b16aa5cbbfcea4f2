package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
)

// MockS3API ...
type MockS3API struct {
	mock.Mock
}

// CreateMultipartUpload ...
func (m *MockS3API) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	output, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return output, args.Error(1)
}

// UploadPart ...
func (m *MockS3API) UploadPart(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	output, _ := args.Get(0).(*s3.UploadPartOutput)
	return output, args.Error(1)
}

// CompleteMultipartUpload ...
func (m *MockS3API) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	output, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return output, args.Error(1)
}

// AbortMultipartUpload ...
func (m *MockS3API) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	output, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return output, args.Error(1)
}
