package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Initialize logs to stderr so command output on stdout stays machine readable.
func Initialize(level slog.Level) {
	InitializeWriter(os.Stderr, level)
}

// InitializeWriter installs a JSON handler writing to w as the default logger.
func InitializeWriter(w io.Writer, level slog.Level) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(logger)
}

// ParseLevel accepts debug, info, warn and error in any case. An empty value is info.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(value) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", value, err)
	}
	return level, nil
}

func Named(name string) *slog.Logger {
	logger := slog.Default()
	if logger == nil {
		return nil
	}

	return logger.With("name", name)
}
