// Package logrus adapts a *logrus.Entry to zerocas.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/zerocas"
)

var _ zerocas.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New wraps l with a component=zerocas field.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "zerocas")}
}

func (l Logger) Debug(msg string, f zerocas.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f zerocas.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f zerocas.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f zerocas.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f zerocas.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
