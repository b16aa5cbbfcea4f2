package main

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/spf13/cobra"

	"github.com/bitrise-io/s3-dir-uploader/config"
	"github.com/bitrise-io/s3-dir-uploader/discovery"
	"github.com/bitrise-io/s3-dir-uploader/multipart"
	"github.com/bitrise-io/s3-dir-uploader/storage"
	"github.com/bitrise-io/s3-dir-uploader/upload"
)

type storeFactory func(ctx context.Context, cfg config.Config, logger log.Logger) (multipart.Store, error)

func newS3Store(ctx context.Context, cfg config.Config, logger log.Logger) (multipart.Store, error) {
	client, err := storage.NewClient(ctx, cfg.ClientParams(), logger)
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return storage.NewS3Store(client, cfg.Bucket, logger), nil
}

func newRootCommand(logger log.Logger, newStore storeFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "s3-dir-uploader",
		Short: "Upload a directory tree to an S3 bucket using multipart uploads",
		Long: `Uploads every file under --source-dir to --bucket, keyed by --prefix and the
file's path relative to the source directory. Files are split into --chunk-size
parts and uploaded by --workers concurrent workers.

Every flag can also be set through an S3UP_ prefixed environment variable,
for example S3UP_CHUNK_SIZE=8MiB.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, logger, newStore)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, logger log.Logger, newStore storeFactory) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.EnableDebugLog(cfg.Verbose)
	cfg.Print(logger)

	if err := cfg.Validate(pathutil.NewPathChecker()); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	for _, warning := range cfg.Warnings() {
		logger.Warnf("%s", warning)
	}

	jobs, err := discovery.NewScanner(logger).Scan(cfg.SourceDir, cfg.Prefix, cfg.Filter())
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	if len(jobs) == 0 {
		logger.Warnf("No files to upload in %s", cfg.SourceDir)
		return nil
	}

	ctx := cmd.Context()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	report := upload.NewOrchestrator(store, cfg.MultipartConfig(), cfg.Workers, logger).Run(ctx, jobs)
	report.Print(logger)

	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(report.Outcomes))
	}

	return nil
}
