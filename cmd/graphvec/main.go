// Command graphvec vectorizes knowledge graphs and serves semantic search over them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vegvisr/graphvec/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
