// Command rockybot answers questions about news articles and coaches
// martial arts training.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/cli"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	cli.SetVersion(version)
	cli.SetInitializer(initialise)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
