package main

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestShutdownContext_FirstSignalCancels(t *testing.T) {
	ctx, stop := shutdownContext(context.Background(), quietLogger())
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of SIGINT")
	}
}

func TestShutdownContext_SecondSignalForcesExit(t *testing.T) {
	exited := make(chan int, 1)

	old := forceExit
	forceExit = func(code int) { exited <- code }
	t.Cleanup(func() { forceExit = old })

	ctx, stop := shutdownContext(context.Background(), quietLogger())
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
	<-ctx.Done()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case code := <-exited:
		require.Equal(t, 1, code)
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not force exit")
	}
}

func TestShutdownContext_ParentCancelPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())

	ctx, stop := shutdownContext(parent, quietLogger())
	defer stop()

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of parent cancel")
	}
}

func TestShutdownContext_StopCancels(t *testing.T) {
	ctx, stop := shutdownContext(context.Background(), quietLogger())

	stop()
	stop() // idempotent

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled by stop")
	}
}
