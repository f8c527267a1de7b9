package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownWatcher turns process signals into cancellation. The first signal
// cancels the context handed to the transport (stdio session, HTTP server)
// and to any in-flight Graph call; the second means draining is stuck and
// the process exits.
type shutdownWatcher struct {
	signals <-chan os.Signal
	release func() // stops signal delivery to signals
	exit    func()
	logger  *slog.Logger
}

// shutdownContext wires a watcher to SIGINT and SIGTERM. serve and every
// one-shot command run under the returned context.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	w := shutdownWatcher{
		signals: sigCh,
		release: func() { signal.Stop(sigCh) },
		exit:    func() { os.Exit(1) },
		logger:  logger,
	}

	return w.watch(parent)
}

func (w shutdownWatcher) watch(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		if w.release != nil {
			defer w.release()
		}

		select {
		case sig := <-w.signals:
			w.logger.Info("shutting down, draining in-flight requests",
				slog.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-w.signals:
			w.logger.Warn("second signal while draining, exiting now",
				slog.String("signal", sig.String()),
			)
			w.exit()
		case <-parent.Done():
		}
	}()

	return ctx
}
