package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"thriftstore/internal/cli"
	"thriftstore/internal/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cfg.Client, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
