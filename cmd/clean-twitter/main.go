package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OmarIbannez/clean-twitter/internal/cli"
)

func main() {
	// Stop paging and removals on Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr, cli.DefaultBackend)

	stop()
	os.Exit(code)
}
