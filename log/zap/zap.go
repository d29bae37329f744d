// Package zap adapts a *zap.Logger to cacheaspect.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/cacheaspect"
)

var _ cacheaspect.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "cacheaspect"; a nil l logs nowhere.
func New(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{L: l.Named("cacheaspect")}
}

func (z ZapLogger) Debug(msg string, f cacheaspect.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f cacheaspect.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f cacheaspect.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f cacheaspect.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order so log lines are stable.
func zf(f cacheaspect.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
