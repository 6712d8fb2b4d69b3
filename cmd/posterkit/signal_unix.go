//go:build !windows

package main

import (
	"os"
	"syscall"
)

// SIGHUP: a closed terminal cancels the run like Ctrl-C.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
