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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leonelquinteros/gotext"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/cliutils"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/logger"
)

func VersionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: gotext.Get("Print the version of the project being packaged"),
		Action: func(c *cli.Context) error {
			deps, err := newDeps(c).
				WithExecutor().
				WithResolver().
				Build()
			if err != nil {
				return err
			}
			defer deps.Defer()

			ver, err := deps.Resolver.Resolve(c.Context)
			if err != nil {
				return cliutils.FormatCliExit(gotext.Get("Error resolving version"), err)
			}
			fmt.Fprintln(c.App.Writer, ver)
			return nil
		},
	}
}

func GetApp() *cli.App {
	return &cli.App{
		Name:      "valpkg",
		Usage:     gotext.Get("Build, package and publish valmond releases"),
		ArgsUsage: "[deb|rpm]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   gotext.Get("Enable debug output"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultConfig,
				Usage:   gotext.Get("Path to the configuration file"),
			},
			&cli.StringFlag{
				Name:    "packager",
				Aliases: []string{"p"},
				Usage:   gotext.Get("Packaging backend (fpm or nfpm)"),
			},
			&cli.BoolFlag{
				Name:  "stream",
				Value: isatty.IsTerminal(os.Stdout.Fd()),
				Usage: gotext.Get("Stream build toolchain output instead of capturing it"),
			},
		},
		Commands: []*cli.Command{
			VersionCmd(),
			ConfigCmd(),
			ListCmd(),
		},
		Action: BuildAction,
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				setLogLevel(slog.LevelDebug)
			}
			return nil
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			cliutils.HandleExitCoder(err)
		},
	}
}

func setLogLevel(level slog.Level) {
	if l, ok := slog.Default().Handler().(*logger.Logger); ok {
		l.SetLevel(level)
	}
}

func main() {
	logger.SetupDefault()
	setLogLevel(logger.ParseLevel(os.Getenv("VALPKG_LOG_LEVEL")))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.HelpFlag.(*cli.BoolFlag).Usage = gotext.Get("Show help")

	app := GetApp()
	err := app.RunContext(ctx, hoistDebug(os.Args))
	if err != nil {
		slog.Error(gotext.Get("Error while running app"), "err", err)
		os.Exit(1)
	}
}
