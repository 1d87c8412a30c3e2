// Command taskpulse is the terminal client of the taskpulse task tracker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskpulse/taskpulse-go/internal/cli"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], cli.Env{})
	stop()
	logger.Sync()
	os.Exit(code)
}
