package logger

import (
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// Init builds the process logger for the deployment environment (APP_ENV).
// production selects JSON output, anything else the human readable
// development encoder.
func Init(env string) {
	l, err := configFor(env).Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewExample()
	}
	current.Store(l)
	l.Info("logger initialized", zap.String("env", env))
}

func configFor(env string) zap.Config {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		return zap.NewProductionConfig()
	default:
		return zap.NewDevelopmentConfig()
	}
}

// Set replaces the process logger and returns a func restoring the previous one.
func Set(l *zap.Logger) func() {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

func Sync() {
	_ = current.Load().Sync()
}

func Debug(msg string, fields map[string]any) {
	current.Load().Debug(msg, toFields(fields)...)
}

func Info(msg string, fields map[string]any) {
	current.Load().Info(msg, toFields(fields)...)
}

func Warn(msg string, fields map[string]any) {
	current.Load().Warn(msg, toFields(fields)...)
}

func Error(msg string, fields map[string]any) {
	current.Load().Error(msg, toFields(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	current.Load().Fatal(msg, toFields(fields)...)
}

func toFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
