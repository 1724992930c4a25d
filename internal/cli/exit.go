package cli

import (
	"context"
	stderrors "errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130 // shell convention for SIGINT
)

// ExitCode maps the result of a command to a process exit code. Any failure
// after ctx was cancelled counts as an interruption.
func ExitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled) || ctx.Err() != nil:
		return ExitInterrupted
	default:
		return ExitError
	}
}
