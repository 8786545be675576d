// Command backup-tests runs the mariabak test suite and reports the outcome
// with pass/fail banners, exiting with the test run's own exit code.
//
// It takes no flags or arguments.
package main

import (
	"context"
	"os"

	"github.com/mariabak-dev/mariabak/internal/testrunner"
)

func main() {
	os.Exit(run())
}

func run() int {
	runner := testrunner.New(os.Stdout)
	result := runner.Run(context.Background(), "go", "test", "./...")

	return result.ExitCode
}
