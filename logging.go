package vgrid

import (
	"log/slog"
	"strings"
)

// logLevels maps config level names onto slog levels.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLogLevel turns a level name into an slog.Level, defaulting to warn.
func ParseLogLevel(name string) slog.Level {
	if level, ok := lookupLogLevel(name); ok {
		return level
	}
	return slog.LevelWarn
}

// lookupLogLevel matches name against the known levels, ignoring case and
// surrounding space.
func lookupLogLevel(name string) (slog.Level, bool) {
	level, ok := logLevels[strings.ToLower(strings.TrimSpace(name))]
	return level, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
