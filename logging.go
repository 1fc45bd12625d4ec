package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// parseLevel maps LOG_LEVEL to a slog level. Unknown values report ok=false
// and fall back to info.
func parseLevel(s string) (lvl slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "info", "":
		return slog.LevelInfo, true
	default:
		return slog.LevelInfo, false
	}
}

// newLogHandler builds the process log handler. When file is set, output is
// also written to a size-rotated log file. The returned closer releases it.
func newLogHandler(stdout io.Writer, level slog.Level, format, file string) (slog.Handler, io.Closer) {
	var closer io.Closer = nopCloser{}
	w := stdout
	if file != "" {
		_ = os.MkdirAll(filepath.Dir(file), 0o755)
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		w = io.MultiWriter(stdout, rotating)
		closer = rotating
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts), closer
	}
	return slog.NewTextHandler(w, opts), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
