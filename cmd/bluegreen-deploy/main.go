package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cutoverd/bluegreen-deploy/internal/cli"
)

func main() {
	// A cutover is safe to interrupt at any step boundary; the signal
	// context lets the reconciliation loop wind down instead of dying
	// mid-request, and the deployment can be picked up later with --resume.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
