// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log configures the structured logger shared by the CLI and the
// trigger server.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output format.
type Format string

const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON Format = "json"
	// FormatText outputs logfmt-style text.
	FormatText Format = "text"
)

// LevelTrace is below Debug and logs request and response bodies.
const LevelTrace = slog.Level(-8)

// Standard field keys.
const (
	PieceKey     = "piece"
	OperationKey = "operation"
	TriggerKey   = "trigger"
	TriggerIDKey = "trigger_id"
	DurationKey  = "duration_ms"
	EventKey     = "event"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	// Default: info
	Level string

	// Format is json or text.
	// Default: json
	Format Format

	// Output defaults to os.Stderr.
	Output io.Writer

	// AddSource adds file and line to each record.
	AddSource bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// FromEnv builds a Config from the environment:
//   - PIECES_DEBUG: true/1 sets debug level with source (takes precedence)
//   - PIECES_LOG_LEVEL: trace, debug, info, warn, error (over LOG_LEVEL)
//   - LOG_LEVEL: as above
//   - LOG_FORMAT: json, text
//   - LOG_SOURCE: 1 adds source locations
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("PIECES_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	} else if level := os.Getenv("PIECES_LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	} else if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}
	if os.Getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}
	return cfg
}

// New creates a logger from cfg.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to a slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags a logger with the subsystem that produced the log.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithPiece tags a logger with a piece name.
func WithPiece(logger *slog.Logger, piece string) *slog.Logger {
	return logger.With(slog.String(PieceKey, piece))
}

// WithTrigger tags a logger with an enabled trigger.
func WithTrigger(logger *slog.Logger, triggerID, piece, trigger string) *slog.Logger {
	return logger.With(
		slog.String(TriggerIDKey, triggerID),
		slog.String(PieceKey, piece),
		slog.String(TriggerKey, trigger),
	)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// SanitizeAPIKey masks a credential, keeping the last 4 characters.
func SanitizeAPIKey(key string) string {
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return "..." + key[len(key)-4:]
}

// Trace logs at trace level.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}
	logger.LogAttrs(ctx, LevelTrace, msg, attrs...)
}
