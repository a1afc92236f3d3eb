// valpkg - valmond release packager
// Copyright (C) 2025 The ALR Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/leonelquinteros/gotext"
)

// Logger is a slog.Handler that writes debug and info records to stdout
// and everything above to stderr.
type Logger struct {
	out *log.Logger
	err *log.Logger

	lOut slog.Handler
	lErr slog.Handler
}

func setupOutLogger(w io.Writer) *log.Logger {
	styles := log.DefaultStyles()
	logger := log.New(w)
	logger.SetStyles(styles)
	return logger
}

func setupErrorLogger(w io.Writer) *log.Logger {
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString(gotext.Get("ERROR")).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("204")).
		Foreground(lipgloss.Color("0"))
	logger := log.New(w)
	logger.SetStyles(styles)
	return logger
}

func New() *Logger {
	return NewWithWriters(os.Stdout, os.Stderr)
}

// NewWithWriters builds a Logger on arbitrary writers. Tests use it to
// inspect what ended up on each stream.
func NewWithWriters(stdout, stderr io.Writer) *Logger {
	standardLogger := setupOutLogger(stdout)
	errLogger := setupErrorLogger(stderr)
	return &Logger{
		out:  standardLogger,
		err:  errLogger,
		lOut: standardLogger,
		lErr: errLogger,
	}
}

func (l *Logger) SetLevel(level slog.Level) {
	l.out.SetLevel(log.Level(level))
	l.err.SetLevel(log.Level(level))
}

func (l *Logger) Enabled(ctx context.Context, level slog.Level) bool {
	if level <= slog.LevelInfo {
		return l.lOut.Enabled(ctx, level)
	}
	return l.lErr.Enabled(ctx, level)
}

func (l *Logger) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level <= slog.LevelInfo {
		return l.lOut.Handle(ctx, rec)
	}
	return l.lErr.Handle(ctx, rec)
}

func (l *Logger) WithAttrs(attrs []slog.Attr) slog.Handler {
	sl := *l
	sl.lOut = l.lOut.WithAttrs(attrs)
	sl.lErr = l.lErr.WithAttrs(attrs)
	return &sl
}

func (l *Logger) WithGroup(name string) slog.Handler {
	sl := *l
	sl.lOut = l.lOut.WithGroup(name)
	sl.lErr = l.lErr.WithGroup(name)
	return &sl
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a slog level.
// Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func SetupDefault() *Logger {
	l := New()
	slog.SetDefault(slog.New(l))
	return l
}
