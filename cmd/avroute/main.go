// Package main is the entry point for avroute.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags. Empty log settings defer to the
// configuration file.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting avroute",
		observability.String("version", version),
		observability.String("config", flags.configPath),
	)

	app, err := newApplication(cfg, logger)
	if err != nil {
		fatalWithSync(logger, "failed to initialize application", observability.Error(err))
		return
	}

	run(app, flags, logger)
}

// parseFlags parses command line flags with environment defaults.
func parseFlags(fs *flag.FlagSet, args []string) cliFlags {
	configPath := fs.String("config", getEnvOrDefault("AVROUTE_CONFIG_PATH", ""),
		"Path to configuration file (defaults apply when empty)")
	logLevel := fs.String("log-level", getEnvOrDefault("AVROUTE_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides logging.level")
	logFormat := fs.String("log-format", getEnvOrDefault("AVROUTE_LOG_FORMAT", ""),
		"Log format (json, console); overrides logging.format")
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(args)

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "avroute version %s\n", version)
	fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger builds the logger from the logging section, with flags taking
// precedence.
func initLogger(cfg config.LoggingConfig, flags cliFlags) (observability.Logger, error) {
	logCfg := observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	}
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		logCfg.Format = flags.logFormat
	}

	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}

	observability.SetGlobalLogger(logger)
	return logger, nil
}

// fatalWithSync flushes the logger before logging at fatal level.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	_ = logger.Sync()
	logger.Fatal(msg, fields...)
}
