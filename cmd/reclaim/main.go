// Package main provides the entry point for the reclaim CLI.
package main

import (
	"errors"
	"os"
)

// Exit codes at the command boundary: 0 success, 1 hard failure (no
// durable state change), 3 partial failure (some items failed but the
// batch is consistent).
const (
	exitHardFailure    = 1
	exitPartialFailure = 3
)

func main() {
	err := Execute()
	switch {
	case err == nil:
	case errors.Is(err, errPartialFailure):
		os.Exit(exitPartialFailure)
	default:
		os.Exit(exitHardFailure)
	}
}
