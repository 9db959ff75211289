// Command deskboard manages a dealership operations board: tickets,
// projects, tasks, meetings, dealerships, features and curator notes kept
// in a spreadsheet-like backend, with symmetric links between them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/deskboard/internal/view"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "deskboard:", err)
	}
	return exitCode(err)
}

// userError marks command-line mistakes: bad arguments, unknown flags.
type userError struct{ err error }

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return userError{fmt.Errorf(format, args...)}
}

// exitCode maps an error to the process exit code. Not-found and
// validation failures are the user's to fix; everything else is a system
// error.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue userError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrUnknownKind),
		errors.Is(err, view.ErrNoSelection):
		return exitUserError
	}
	return exitSysError
}
