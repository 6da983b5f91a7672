// Package zap adapts a *zap.Logger to zerocas.Logger.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/zerocas"
)

var _ zerocas.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "zerocas" so its entries are easy to filter.
func New(l *zap.Logger) Logger { return Logger{L: l.Named("zerocas")} }

func (z Logger) Debug(msg string, f zerocas.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f zerocas.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f zerocas.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f zerocas.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f zerocas.Fields) []zap.Field {
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
