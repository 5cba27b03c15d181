package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// forceExit ends the process on a second signal. Tests replace it.
var forceExit = os.Exit

// shutdownContext returns a context that cancels on the first SIGINT/SIGTERM
// and force-exits on the second. On the first signal a run stops before the
// next file; transfers already accepted stay accepted.
//
// The returned stop func cancels the context and stops listening for
// signals. Callers defer it.
func shutdownContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	stopped := make(chan struct{})

	var once sync.Once

	stop := func() {
		once.Do(func() {
			close(stopped)
			cancel()
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, stopping after the current file",
				slog.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit",
				slog.String("signal", sig.String()),
			)
			forceExit(1)
		case <-stopped:
		case <-parent.Done():
		}
	}()

	return ctx, stop
}
