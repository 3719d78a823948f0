// Package logging configures the process-wide slog logger backed by a
// rotating log file.
package logging

import (
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely a tool logs.
type Options struct {
	Filename   string
	Level      string
	Verbose    bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// ParseLevel maps a textual or numeric level to slog.Level, falling back to
// defaultLevel for empty or unknown input.
func ParseLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// Configure installs a text handler writing to a lumberjack-rotated file as
// the default slog logger and returns it.
//
// It logs at the configured level, or at Debug when Verbose is set.
func Configure(opts Options, fallbackFilename string) *slog.Logger {
	filename := strings.TrimSpace(opts.Filename)
	if filename == "" {
		filename = fallbackFilename
	}

	level := ParseLevel(opts.Level, slog.LevelInfo)
	if opts.Verbose {
		level = slog.LevelDebug
	}

	writer := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
