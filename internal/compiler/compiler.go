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

package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/leonelquinteros/gotext"
	"mvdan.cc/sh/v3/syntax"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/version"
)

type Compiler struct {
	Exec     runner.Executor
	Resolver version.Resolver

	Name        string
	Binary      string
	BuildScript string
	BuildParams []string
	Dir         string
	// Stream passes the toolchain's output straight to the terminal.
	Stream bool

	now func() time.Time
}

// Compile rebuilds the binary from scratch. The toolchain derives its own
// embedded version; the resolved one is only logged.
func (c *Compiler) Compile(ctx context.Context) (time.Duration, error) {
	err := os.Remove(c.Binary)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("failed to remove old binary: %w", err)
	}

	ver, err := c.Resolver.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	slog.Info(gotext.Get("Resolved version"), "name", c.Name, "version", ver)
	slog.Info(gotext.Get("Compiling binary"), "script", c.BuildScript)

	now := c.now
	if now == nil {
		now = time.Now
	}

	start := now()
	res, err := c.Exec.Run(ctx, runner.Command{
		Line:        c.commandLine(),
		Shell:       true,
		Passthrough: c.Stream,
		Dir:         c.Dir,
	})
	if err != nil {
		return 0, err
	}
	taken := now().Sub(start)
	slog.Info(gotext.Get("Time taken"), "seconds", taken.Seconds())

	if res != nil && res.Output != "" {
		slog.Debug(gotext.Get("Build output"), "output", res.Output)
	}

	if _, err := os.Stat(c.Binary); err != nil {
		return taken, fmt.Errorf("build finished without producing %s: %w", c.Binary, err)
	}
	return taken, nil
}

func (c *Compiler) commandLine() string {
	words := make([]string, 0, len(c.BuildParams)+2)
	words = append(words, "sh", quote(c.BuildScript))
	for _, p := range c.BuildParams {
		words = append(words, quote(p))
	}
	return strings.Join(words, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return s
	}
	return q
}
