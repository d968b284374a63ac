package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

// Warning prints a warning message to standard error.
func Warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
}

// Fatal prints an error message to standard error and terminates the
// process with the exit code its ferrors.Kind maps to (spec §6), or 1 if
// err carries no recognized kind.
func Fatal(err error) {
	Error(err)
	var fe *ferrors.Error
	if errors.As(err, &fe) {
		os.Exit(fe.Kind().ExitCode())
	}
	os.Exit(1)
}
