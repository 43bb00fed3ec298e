package config

import (
	"log/slog"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/normalization"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "BOOKBUILDER_LOG_LEVEL"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = normalization.NewEnum("log level", LogLevelInfo,
	LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError).
	WithAlias("warning", LogLevelWarn)

// NormalizeLogLevel maps raw onto a known level, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevels.Normalize(raw)
}

// SlogLevel converts the level for use with a slog handler.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
