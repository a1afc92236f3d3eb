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
	"fmt"

	"github.com/leonelquinteros/gotext"
	"github.com/urfave/cli/v2"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/cliutils"
)

func ListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Usage:   gotext.Get("List published packages recorded in the ledger"),
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   gotext.Get("Only list packages of this format"),
			},
		},
		Action: func(c *cli.Context) error {
			deps, err := newDeps(c).
				WithDB().
				Build()
			if err != nil {
				return err
			}
			defer deps.Defer()

			if deps.DB == nil {
				return cliutils.FormatCliExit(gotext.Get("No ledger configured, set ledgerPath in the config"), nil)
			}

			pkgs, err := deps.DB.List(c.Context)
			if err != nil {
				return cliutils.FormatCliExit(gotext.Get("Error reading ledger"), err)
			}

			format := c.String("format")
			for _, pkg := range pkgs {
				if format != "" && pkg.Format != format {
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s/%s %s %s %s\n", pkg.Format, pkg.Name, pkg.Version, pkg.File, pkg.SHA256)
			}
			return nil
		},
	}
}
