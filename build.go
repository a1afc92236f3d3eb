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

package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leonelquinteros/gotext"
	"github.com/urfave/cli/v2"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/cliutils"
	appbuilder "gitea.plemya-x.ru/Plemya-x/valpkg/internal/cliutils/app_builder"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/logger"
)

// BuildAction runs a full release for the format named on the command
// line, or for every format the config lists.
func BuildAction(c *cli.Context) error {
	formats, err := parseFormats(c.Args().Slice())
	if err != nil {
		return cliutils.FormatCliExit(gotext.Get("Invalid arguments"), err)
	}

	deps, err := newDeps(c).
		WithExecutor().
		WithDB().
		WithPipeline(c.Bool("stream")).
		Build()
	if err != nil {
		return err
	}
	defer deps.Defer()

	if formats == nil {
		formats = deps.Cfg.Formats
	}

	_, err = deps.Pipeline.Run(c.Context, formats)
	if err != nil {
		return fmt.Errorf("%s: %w", gotext.Get("Release failed"), err)
	}
	return nil
}

// newDeps loads the config with the overrides given as global flags.
func newDeps(c *cli.Context) *appbuilder.AppBuilder {
	return appbuilder.New(c.Context).
		WithConfig(c.String("config"), func(cfg *config.Config) {
			if p := c.String("packager"); p != "" {
				cfg.Packager = p
			}
			if !c.Bool("debug") && cfg.LogLevel != "" {
				setLogLevel(logger.ParseLevel(cfg.LogLevel))
			}
		}).
		WithPaths()
}

// parseFormats accepts no argument (nil, meaning the configured formats)
// or exactly one supported format.
func parseFormats(args []string) ([]string, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		if !slices.Contains(config.SupportedFormats(), args[0]) {
			return nil, errors.New(gotext.Get("unsupported output format %q", args[0]))
		}
		return []string{args[0]}, nil
	}
	return nil, errors.New(gotext.Get("expected at most one format, got %d", len(args)))
}

// hoistDebug moves every --debug flag in front of the other arguments, so
// that it is honoured wherever it appears on the command line.
func hoistDebug(args []string) []string {
	if len(args) == 0 {
		return args
	}

	rest := make([]string, 0, len(args))
	debug := false
	for i, a := range args[1:] {
		if a == "--" {
			rest = append(rest, args[1+i:]...)
			break
		}
		switch a {
		case "--debug", "-debug", "-d":
			debug = true
		default:
			rest = append(rest, a)
		}
	}

	out := []string{args[0]}
	if debug {
		out = append(out, "--debug")
	}
	return append(out, rest...)
}
