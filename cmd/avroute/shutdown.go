package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/observability"
)

// run starts the application and blocks until SIGINT or SIGTERM.
func run(app *application, flags cliFlags, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := app.start(); err != nil {
		fatalWithSync(logger, "failed to start server", observability.Error(err))
		return
	}

	watcher := startConfigWatcher(context.Background(), flags, logger)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	app.shutdown(watcher, logger)
}

// start starts the server and the rate limiter cleanup.
func (app *application) start() error {
	if err := app.server.Start(); err != nil {
		return err
	}
	app.rateLimiter.StartAutoCleanup()
	return nil
}

// shutdown stops everything started by start within the configured
// shutdown timeout.
func (app *application) shutdown(watcher *config.Watcher, logger observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Error("failed to stop config watcher", observability.Error(err))
		}
	}

	if err := app.server.Stop(ctx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if err := app.close(); err != nil {
		logger.Error("failed to close redis client", observability.Error(err))
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("avroute stopped")
}
