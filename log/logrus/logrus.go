// Package logrus adapts a logrus entry to cacheaspect.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cacheaspect"
)

var _ cacheaspect.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=cacheaspect.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "cacheaspect")}
}

func (l LogrusLogger) Debug(msg string, f cacheaspect.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f cacheaspect.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f cacheaspect.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f cacheaspect.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
