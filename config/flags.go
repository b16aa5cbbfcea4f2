package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "S3UP"

// Flag names.
const (
	FlagBucket          = "bucket"
	FlagSourceDir       = "source-dir"
	FlagPrefix          = "prefix"
	FlagWorkers         = "workers"
	FlagChunkSize       = "chunk-size"
	FlagBufferSize      = "buffer-size"
	FlagRegion          = "region"
	FlagEndpointURL     = "endpoint-url"
	FlagPathStyle       = "path-style"
	FlagAccessKeyID     = "access-key-id"
	FlagSecretAccessKey = "secret-access-key"
	FlagInclude         = "include"
	FlagExclude         = "exclude"
	FlagCallTimeout     = "call-timeout"
	FlagConnectTimeout  = "connect-timeout"
	FlagCreateRetries   = "create-retries"
	FlagVerbose         = "verbose"
)

const (
	defaultCallTimeout    = 5 * time.Minute
	defaultConnectTimeout = 30 * time.Second
)

// RegisterFlags defines the uploader flags on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagBucket, "", "Destination bucket (required)")
	flags.String(FlagSourceDir, "", "Directory to upload (required)")
	flags.String(FlagPrefix, "", "Destination key prefix (required)")
	flags.Int(FlagWorkers, 0, "Number of concurrent uploads (required)")
	flags.String(FlagChunkSize, "", "Part size, in bytes or as a size like 8MiB (required)")
	flags.String(FlagBufferSize, "", "Read buffer size per worker, in bytes or as a size like 256KiB (required)")

	flags.String(FlagRegion, "", "Bucket region, looked up from the bucket if empty")
	flags.String(FlagEndpointURL, "", "Custom endpoint of an S3 compatible store")
	flags.Bool(FlagPathStyle, false, "Use path-style bucket addressing")
	flags.String(FlagAccessKeyID, "", "Access key ID, the default credential chain is used if empty")
	flags.String(FlagSecretAccessKey, "", "Secret access key")

	flags.StringSlice(FlagInclude, nil, "Only upload files matching this glob (repeatable)")
	flags.StringSlice(FlagExclude, nil, "Skip files matching this glob (repeatable)")

	flags.Duration(FlagCallTimeout, defaultCallTimeout, "Timeout of a single remote call")
	flags.Duration(FlagConnectTimeout, defaultConnectTimeout, "Timeout of establishing a connection")
	flags.Uint(FlagCreateRetries, 0, "Number of retries when starting an upload fails")
	flags.Bool(FlagVerbose, false, "Enable debug logging")
}

// NewViper returns a viper instance reading flags, then S3UP_ prefixed environment variables.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	return v, nil
}

// Load reads the config from v. Size values accept plain bytes or human sizes.
func Load(v *viper.Viper) (Config, error) {
	var errs []error

	chunkSize, err := parseSize(v.GetString(FlagChunkSize))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", FlagChunkSize, err))
	}

	bufferSize, err := parseSize(v.GetString(FlagBufferSize))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", FlagBufferSize, err))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return Config{
		Bucket:     v.GetString(FlagBucket),
		SourceDir:  v.GetString(FlagSourceDir),
		Prefix:     v.GetString(FlagPrefix),
		Workers:    v.GetInt(FlagWorkers),
		ChunkSize:  chunkSize,
		BufferSize: bufferSize,

		Region:          v.GetString(FlagRegion),
		EndpointURL:     v.GetString(FlagEndpointURL),
		PathStyle:       v.GetBool(FlagPathStyle),
		AccessKeyID:     v.GetString(FlagAccessKeyID),
		SecretAccessKey: Secret(v.GetString(FlagSecretAccessKey)),

		Include: v.GetStringSlice(FlagInclude),
		Exclude: v.GetStringSlice(FlagExclude),

		CallTimeout:    v.GetDuration(FlagCallTimeout),
		ConnectTimeout: v.GetDuration(FlagConnectTimeout),
		CreateRetries:  v.GetUint(FlagCreateRetries),

		Verbose: v.GetBool(FlagVerbose),
	}, nil
}

// parseSize returns 0 for an empty value, required values are reported by Validate.
func parseSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	size, err := units.RAMInBytes(value)
	if err != nil {
		return 0, err
	}
	return size, nil
}
