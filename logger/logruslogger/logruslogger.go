// Package logruslogger adapts a *logrus.Entry to logger.Logger.
package logruslogger

import (
	"github.com/karupanerura/connected-loader/logger"
	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Entry.
type Logger struct{ E *logrus.Entry }

var _ logger.Logger = Logger{}

func (l Logger) Debug(msg string, f logger.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f logger.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f logger.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f logger.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
