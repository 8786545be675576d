// Package testrunner wraps an external test command with start and result
// banners, propagating the command's exit code verbatim.
//
// The runner does not capture or buffer the child's output; child stdout and
// stderr are wired straight to the runner's streams, so interleaving with
// the banners is whatever the platform delivers.
package testrunner

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Banner strings. These are a compatibility surface: scripts grep for them.
const (
	StartBanner   = "Starting MariaDB Backup System Unit Tests..."
	SuccessBanner = "SUCCESS: All tests passed!"
	FailureBanner = "FAILURE: Some tests failed."
)

// separatorWidth is the dash count of the separator lines.
const separatorWidth = 42

// unstartableExitCode is reported when the child cannot be located or
// started, by shell "command not found" convention. The runner does not
// otherwise distinguish could-not-run from ran-and-failed.
const unstartableExitCode = 127

// Styles is the fixed set of display styles the runner reports with.
type Styles struct {
	Success *color.Color
	Failure *color.Color
	Info    *color.Color
	None    *color.Color
}

// DefaultStyles returns the standard banner styling. Color output degrades
// automatically on non-TTY streams and under NO_COLOR.
func DefaultStyles() Styles {
	return Styles{
		Success: color.New(color.FgGreen),
		Failure: color.New(color.FgRed),
		Info:    color.New(color.FgCyan),
		None:    color.New(),
	}
}

// Result describes a completed run.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Runner executes one test command and reports its outcome.
type Runner struct {
	// Out receives the banners.
	Out io.Writer
	// ChildOut and ChildErr receive the child's streams. Both default to Out.
	ChildOut io.Writer
	ChildErr io.Writer

	Styles Styles
}

// New creates a Runner writing banners and child output to out.
func New(out io.Writer) *Runner {
	return &Runner{
		Out:      out,
		ChildOut: out,
		ChildErr: out,
		Styles:   DefaultStyles(),
	}
}

// Run executes the command synchronously and reports its outcome.
// The child's exit code is returned exactly as observed; a child that
// cannot be started takes the same failure path with code 127. Run blocks
// until the child exits or ctx is canceled.
func (r *Runner) Run(ctx context.Context, name string, args ...string) Result {
	startedAt := time.Now()

	separator := strings.Repeat("-", separatorWidth)

	r.Styles.Info.Fprintln(r.Out, StartBanner)
	r.Styles.None.Fprintln(r.Out, separator)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.ChildOut
	cmd.Stderr = r.ChildErr

	exitCode := 0

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError

		switch {
		case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
			exitCode = exitErr.ExitCode()
		case errors.As(err, &exitErr):
			// Killed by a signal; there is no exit code to propagate.
			exitCode = 1
		default:
			exitCode = unstartableExitCode
		}
	}

	r.Styles.None.Fprintln(r.Out, separator)

	if exitCode == 0 {
		r.Styles.Success.Fprintln(r.Out, SuccessBanner)
	} else {
		r.Styles.Failure.Fprintln(r.Out, FailureBanner)
	}

	return Result{
		ExitCode: exitCode,
		Duration: time.Since(startedAt),
	}
}
