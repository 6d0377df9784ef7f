// Package ca65util holds small process-wide utilities shared across
// the engine, server, and CLI: structured logging and pool sizing.
package ca65util

import (
	"io"
	"log/slog"
	"os"
	"runtime"
)

// LogLevel selects the minimum severity a logger emits.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat selects the logger's wire format.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// DefaultLoggerConfig logs info-and-above as JSON to stderr, leaving
// stdout free for an LSP's stdio transport.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{Level: LevelInfo, Format: FormatJSON, Output: os.Stderr}
}

// NewLogger builds a slog.Logger from config.
func NewLogger(config LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(config.Level)}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}
	return slog.New(handler)
}

func parseLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OptimalPoolSize returns the worker count the initial-scan pool
// should use: twice the available CPUs, since scanning is I/O-bound
// between reads of small files.
func OptimalPoolSize() int {
	return runtime.NumCPU() * 2
}
