package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joeycumines/strips/internal/command"
	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/logging"
	"github.com/joho/godotenv"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	// .env is optional; it may set STRIPS_* overrides
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintf(stderr, "Warning: failed to load .env: %v\n", err)
	}

	fs := flag.NewFlagSet("strips", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath, logLevel, logFile string
	fs.StringVar(&configPath, "config", "", "Config file (default: $"+config.EnvConfigPath+" or ~/.strips/config)")
	fs.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default: log.level)")
	fs.StringVar(&logFile, "log-file", "", "Log file (default: log.file, stderr when empty)")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "Usage: strips [options] <command> [command options] [args...]")
		_, _ = fmt.Fprintln(stderr, "")
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := logging.Resolve(logLevel, logFile, cfg)
	if err != nil {
		return err
	}
	closer, err := logging.Install(opts, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	for _, w := range cfg.Warnings {
		slog.Warn("config problem", "detail", w)
	}

	command.Configure(cfg)

	registry := command.NewRegistry()
	registry.Register(command.NewHelpCommand(registry))
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, configPath))
	registry.Register(command.NewCheckCommand(cfg))
	registry.Register(command.NewCostCommand(cfg))
	registry.Register(command.NewApplyCommand(cfg))
	registry.Register(command.NewPlanCommand(cfg))
	registry.Register(command.NewLogCommand(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return registry.Run(ctx, fs.Args(), stdout, stderr)
}
