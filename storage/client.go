package storage

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bitrise-io/go-utils/v2/log"
)

// defaultLookupRegion is used to reach the bucket before its region is known.
const defaultLookupRegion = "us-east-1"

// ClientParams ...
type ClientParams struct {
	Bucket          string
	Region          string
	EndpointURL     string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
	ConnectTimeout  time.Duration
}

// NewClient creates an S3 client for params.Bucket.
// If no region is configured or found in the environment, it is looked up from the bucket.
func NewClient(ctx context.Context, params ClientParams, logger log.Logger) (*s3.Client, error) {
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}

	cfg, err := loadAWSConfig(ctx, params, logger)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if cfg.Region == "" {
		region, err := ResolveRegion(ctx, s3.NewFromConfig(*cfg, clientOptions(params, defaultLookupRegion)), params.Bucket)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Resolved region of bucket %s: %s", params.Bucket, region)
		cfg.Region = region
	}

	return s3.NewFromConfig(*cfg, clientOptions(params, "")), nil
}

// ResolveRegion returns the region the bucket lives in.
func ResolveRegion(ctx context.Context, client manager.HeadBucketAPIClient, bucket string) (string, error) {
	region, err := manager.GetBucketRegion(ctx, client, bucket)
	if err != nil {
		return "", fmt.Errorf("resolve region of bucket %s: %w", bucket, err)
	}
	return region, nil
}

func clientOptions(params ClientParams, region string) func(*s3.Options) {
	return func(o *s3.Options) {
		if region != "" {
			o.Region = region
		}
		if params.EndpointURL != "" {
			o.BaseEndpoint = aws.String(params.EndpointURL)
		}
		o.UsePathStyle = params.UsePathStyle
	}
}

func loadAWSConfig(ctx context.Context, params ClientParams, logger log.Logger) (*aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	if params.Region != "" {
		opts = append(opts, config.WithRegion(params.Region))
	}

	if params.AccessKeyID != "" && params.SecretAccessKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(params.AccessKeyID, params.SecretAccessKey, "")))
	} else {
		logger.Debugf("aws credentials not defined, using the default credential chain...")
	}

	if params.ConnectTimeout > 0 {
		httpClient := awshttp.NewBuildableClient().WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = params.ConnectTimeout
		})
		opts = append(opts, config.WithHTTPClient(httpClient))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %w", err)
	}

	return &cfg, nil
}
