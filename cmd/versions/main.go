// Command versions is the entry point of the version discovery and tag reconciliation
// workflows.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, &cli{}, os.Args[1:]); err != nil {
		return 1
	}
	return 0
}
