// Package zaplogger adapts a *zap.Logger to logger.Logger.
package zaplogger

import (
	"github.com/karupanerura/connected-loader/logger"
	"go.uber.org/zap"
)

// Logger wraps a *zap.Logger.
type Logger struct{ L *zap.Logger }

var _ logger.Logger = Logger{}

func (z Logger) Debug(msg string, f logger.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f logger.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f logger.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f logger.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f logger.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
