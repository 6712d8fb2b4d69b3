package main

// Notes:
// - notifyContext: we test context lifecycle and parent propagation only.
//   Real signal delivery is not exercised; it is process-wide and would
//   race with other tests.

import (
	"context"
	"os"
	"testing"
)

// ---------------------------------------------------------------------------
// TestNotifyContext - Context creation and cancellation behavior
// ---------------------------------------------------------------------------

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("starts live and stop cancels", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		select {
		case <-ctx.Done():
			t.Fatal("context should not be cancelled initially")
		default:
		}

		stop()
		select {
		case <-ctx.Done():
		default:
			t.Fatal("context should be cancelled after stop()")
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		<-ctx.Done()
		if ctx.Err() != context.Canceled {
			t.Errorf("ctx.Err() = %v, want context.Canceled", ctx.Err())
		}
	})
}

func TestShutdownSignals(t *testing.T) {
	t.Parallel()

	for _, sig := range shutdownSignals {
		if sig == os.Interrupt {
			return
		}
	}
	t.Errorf("shutdownSignals = %v, should include os.Interrupt", shutdownSignals)
}
