package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fleetscan/fleetscan/cmd"
)

func main() {
	// An interrupt cancels the run context; the batch stops after the
	// image in flight and the summary still prints.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
