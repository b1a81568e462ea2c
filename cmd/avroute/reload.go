package main

import (
	"context"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/observability"
)

// startConfigWatcher watches the configuration file and applies logging
// level changes. Routes and static mounts need a restart. It returns nil
// when there is no file to watch.
func startConfigWatcher(
	ctx context.Context,
	flags cliFlags,
	logger observability.Logger,
) *config.Watcher {
	if flags.configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(flags.configPath, func(newCfg *config.Config) {
		applyReload(newCfg, flags, logger)
	}, config.WithLogger(logger))
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		return watcher
	}

	return watcher
}

// applyReload applies the reloadable parts of newCfg. A level given on the
// command line or in the environment wins over the file.
func applyReload(newCfg *config.Config, flags cliFlags, logger observability.Logger) {
	if flags.logLevel != "" {
		return
	}

	setter, ok := logger.(observability.LevelSetter)
	if !ok {
		return
	}

	previous := setter.Level()
	if previous == newCfg.Logging.Level {
		return
	}

	if err := setter.SetLevel(newCfg.Logging.Level); err != nil {
		logger.Error("failed to apply log level", observability.Error(err))
		return
	}

	logger.Info("log level changed",
		observability.String("from", previous),
		observability.String("to", newCfg.Logging.Level),
	)
}
