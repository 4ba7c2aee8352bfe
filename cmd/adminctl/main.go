package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lores-mesh/site-admin/cmd/adminctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
