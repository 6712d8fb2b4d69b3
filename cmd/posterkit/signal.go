package main

import (
	"context"
	"os/signal"
)

// notifyContext returns a context canceled on the first shutdown signal.
// A batch run treats it as Cancel; serve starts a graceful shutdown.
// Call stop() to restore default signal handling, so a second signal kills
// the process.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
