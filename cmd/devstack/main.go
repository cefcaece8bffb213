// Command devstack is the developer tool for the app frontend build.
package main

import (
	"io"
	"os"
	"runtime/debug"

	"devstack/internal/cli"
	"github.com/fatih/color"
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errColor = color.New(color.FgRed)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			errColor.Fprintf(errWriter, "✗ panic recovered: %v\n%s", r, debug.Stack())
			exitCode = cli.ExitError
		}
	}()

	return runner(args)
}

func runWithArgs(args []string) int {
	rootCmd := cli.NewRootCmd(version, commit, date)
	rootCmd.SetArgs(args)

	if err := cli.Execute(rootCmd); err != nil {
		errColor.Fprintf(rootCmd.ErrOrStderr(), "✗ %v\n", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
