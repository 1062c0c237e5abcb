// Package sloglogger adapts a *slog.Logger to logger.Logger.
package sloglogger

import (
	"context"
	"log/slog"

	"github.com/karupanerura/connected-loader/logger"
)

// Logger wraps a *slog.Logger.
type Logger struct{ L *slog.Logger }

var _ logger.Logger = Logger{}

func (s Logger) Debug(msg string, f logger.Fields) { s.log(slog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f logger.Fields)  { s.log(slog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f logger.Fields)  { s.log(slog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f logger.Fields) { s.log(slog.LevelError, msg, f) }

func (s Logger) log(level slog.Level, msg string, f logger.Fields) {
	s.L.LogAttrs(context.Background(), level, msg, attrs(f)...)
}

func attrs(f logger.Fields) []slog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]slog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, slog.Any(k, v))
	}
	return out
}
