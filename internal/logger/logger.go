package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/textset/internal/version"
)

// Environments with a logging profile. Each has a config/<env>.yaml.
const (
	EnvLocal = "local"
	EnvProd  = "prod"
)

// New builds the process logger for env: JSON at info level in prod,
// console output at debug level locally. A non-empty level (debug, info,
// warn, error) overrides the profile. Every entry carries the component
// name and the build version.
func New(env, level, component string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case EnvProd:
		cfg = zap.NewProductionConfig()
	case EnvLocal:
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown environment %q for logger (want %s or %s)", env, EnvLocal, EnvProd)
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.InitialFields = map[string]any{
		"component": component,
		"version":   version.Version,
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
