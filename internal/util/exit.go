package util

import (
	"fmt"
	"os"
)

// Standard exit codes for the clusterpulse binary
const (
	// ExitOK indicates successful execution
	ExitOK = 0

	// ExitDegraded indicates the fleet had critical findings in one-shot mode
	ExitDegraded = 1

	// ExitInvalidInput indicates validation errors or invalid parameters
	ExitInvalidInput = 2

	// ExitRuntimeError indicates I/O errors, API failures, or runtime issues
	ExitRuntimeError = 3

	// ExitInterrupted indicates the process was stopped by a signal
	ExitInterrupted = 4
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError prints an error message to stderr and exits with the given code
func ExitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	Exit(code)
}
