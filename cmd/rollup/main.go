// rollup aggregates test results and build problems into a bounded tree
// of scopes: projects, build configurations, builds, suites, packages and
// classes.
//
// Usage:
//
//	rollup tree -i snapshot.yaml
//	go test -json ./... | rollup tree --max-children 3
//	rollup subtree 42 -i snapshot.yaml --domain problems
//	rollup browse -i snapshot.yaml
//	rollup serve -i snapshot.yaml --addr :9090
//
// Input is either a host model snapshot (YAML or JSON) or a go test -json
// stream; the format is sniffed.
//
// Output modes (auto-detected):
//
//	terminal  styled Unicode output (default when TTY)
//	llm       terse plain text for AI consumption (default when piped)
//	json      structured JSON for automation
//
// Exit codes: 0 clean, 1 failures in the rendered tree or an internal
// error, 2 usage, input or unknown-node errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dkoosis/rollup/internal/config"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/ordering"
	"github.com/dkoosis/rollup/pkg/scopetree"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "rollup: %v\n", err)
		return exitCode(err)
	}
	return a.code
}

// usageError marks errors caused by the invocation or its input.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var usage usageError
	var cfgErr *config.ConfigError
	switch {
	case errors.As(err, &usage),
		errors.As(err, &cfgErr),
		errors.Is(err, scopetree.ErrNotFound),
		errors.Is(err, ordering.ErrUnknownOrder),
		errors.Is(err, hostmodel.ErrInvalidDataset):
		return 2
	default:
		return 1
	}
}
