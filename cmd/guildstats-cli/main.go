// Command guildstats-cli reports on, generates and verifies guild datasets.
//
// Usage:
//
//	guildstats-cli report --sort hk --dir desc --top 10
//	guildstats-cli generate --members 50 --achievements 80 --out data --seed 7
//	guildstats-cli verify --url http://localhost:9080
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/okian/guildstats/pkg/logger"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}
