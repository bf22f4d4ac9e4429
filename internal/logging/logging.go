// Package logging builds the process logger from flags and configuration:
// a log/slog text or JSON handler writing to stderr or to a size-rotated
// file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/strips"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options is a resolved logging configuration.
type Options struct {
	Level  slog.Level
	JSON   bool
	File   string // stderr when empty
	Rotate Rotation
}

// Rotation controls log file rotation.
type Rotation struct {
	MaxSizeMB  int
	MaxFiles   int
	MaxAgeDays int
	Compress   bool
}

// ParseLevel parses debug, info, warn or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// Resolve resolves the logging options. Non-empty flag values take
// precedence over the configuration (and its environment overrides); cfg
// may be nil.
func Resolve(flagLevel, flagFile string, cfg *config.Config) (Options, error) {
	schema := config.DefaultSchema()
	if cfg == nil {
		cfg = config.NewConfig()
	}

	var opts Options
	levelStr := flagLevel
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, "log.level")
	}
	level, err := ParseLevel(levelStr)
	if err != nil {
		return opts, err
	}
	opts.Level = level

	switch format := strings.ToLower(schema.Resolve(cfg, "log.format")); format {
	case "json":
		opts.JSON = true
	case "text", "":
	default:
		return opts, fmt.Errorf("invalid log format: %s", format)
	}

	opts.File = flagFile
	if opts.File == "" {
		opts.File = schema.Resolve(cfg, "log.file")
	}

	opts.Rotate = Rotation{
		MaxSizeMB:  schema.ResolveInt(cfg, "log.max-size-mb"),
		MaxFiles:   schema.ResolveInt(cfg, "log.max-files"),
		MaxAgeDays: schema.ResolveInt(cfg, "log.max-age-days"),
		Compress:   schema.ResolveBool(cfg, "log.compress"),
	}
	if opts.Rotate.MaxSizeMB < 1 {
		opts.Rotate.MaxSizeMB = 1
	}
	if opts.Rotate.MaxFiles < 0 {
		opts.Rotate.MaxFiles = 0
	}
	return opts, nil
}

// New builds a logger. Without a file it writes to stderr. The returned
// closer releases the log file and is never nil.
func New(opts Options, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	w := stderr
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.Rotate.MaxSizeMB,
			MaxBackups: opts.Rotate.MaxFiles,
			MaxAge:     opts.Rotate.MaxAgeDays,
			Compress:   opts.Rotate.Compress,
		}
		// lumberjack opens lazily; an empty write surfaces open errors now
		if _, err := lj.Write(nil); err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		w, closer = lj, lj
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(h), closer, nil
}

// Install builds a logger and makes it the default for slog and for the
// planning core.
func Install(opts Options, stderr io.Writer) (io.Closer, error) {
	logger, closer, err := New(opts, stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	strips.SetLogger(logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
