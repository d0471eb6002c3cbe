package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/a3tai/sign-form/internal/cli"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cli.SetVersionInfo(version, buildTime, gitCommit)

	// Cancel in-flight generation on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
