package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"vgrid"
)

// initLogging returns a logger writing JSON to the griddemo log file in the
// XDG cache directory. The interactive UI owns the terminal, so nothing is
// logged to stderr unless toStderr is set.
func initLogging(level string, toStderr bool) (*slog.Logger, io.Closer, error) {
	lvl := vgrid.ParseLogLevel(level)
	if toStderr {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), io.NopCloser(nil), nil
	}

	logDir := cacheDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logPath := filepath.Join(logDir, "griddemo.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: true,
	}))
	logger.Debug("logging initialized", "level", lvl.String(), "log_file", logPath)
	return logger, f, nil
}

// cacheDir returns the XDG cache directory for griddemo.
func cacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "griddemo")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "griddemo")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Caches", "griddemo")
	}
	return filepath.Join(home, ".cache", "griddemo")
}
