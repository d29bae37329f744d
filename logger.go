package cacheaspect

// Fields carries structured context for a log line. The aspect always sets
// "method" and, once resolved, "key".
type Fields map[string]any

// Logger receives the aspect's diagnostics: Debug for hits, misses, stores
// and evictions, Warn for truncated keys and failed cache steps. Adapters
// for zap, logrus and slog live under log/. A nil Logger in Options
// disables logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
