package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/drawbridge/internal/cli"
	"github.com/matzehuels/drawbridge/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	code := cli.ExitCode(ctx, err)
	if code == cli.ExitError {
		fmt.Fprintln(os.Stderr, "Error:", errors.UserMessage(err))
	}
	if code != cli.ExitOK {
		cancel()
		os.Exit(code)
	}
}
