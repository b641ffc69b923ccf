package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

const (
	rotationPeriod = 24 * time.Hour
	retention      = 14 * 24 * time.Hour
)

// New creates a JSON slog logger writing to stdout at the provided level. If the
// level string is invalid it defaults to info.
func New(level string) *slog.Logger {
	return NewTo(os.Stdout, level)
}

// NewTo creates a JSON slog logger writing to w.
func NewTo(w io.Writer, level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// RotatingFile opens a daily-rotated log sink at path. Rotated files are named
// path.YYYYMMDD and path itself is kept as a symlink to the current one.
func RotatingFile(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	rl, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(rotationPeriod),
		rotatelogs.WithMaxAge(retention),
	)
	if err != nil {
		return nil, fmt.Errorf("open rotating log: %w", err)
	}
	return rl, nil
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
