package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/go-utils/v2/log"
)

func main() {
	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(logger, newS3Store).ExecuteContext(ctx)
	stop()

	if err != nil {
		logger.Errorf("%s", err)
		os.Exit(1)
	}
}
