package shell

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// exitInterrupted is the process status used after a fatal signal.
const exitInterrupted = 255

var exit = os.Exit

// HandleSignals removes the registry's files and terminates the process when
// SIGHUP, SIGINT, SIGQUIT or SIGTERM arrives. The returned stop function
// uninstalls the handler.
func HandleSignals(ctx context.Context, reg *Registry, log *slog.Logger) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			log.Error("signal received, quitting", "signal", sig.String())
			n := reg.Cleanup()
			log.Debug("removed temporary files", "count", n)
			exit(exitInterrupted)
		case <-ctx.Done():
		case <-done:
		}
	}()

	return once(func() {
		signal.Stop(ch)
		close(done)
	})
}

func once(fn func()) func() {
	called := false
	return func() {
		if !called {
			called = true
			fn()
		}
	}
}
