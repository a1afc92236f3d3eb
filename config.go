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
)

func ConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: gotext.Get("Print the effective configuration"),
		Action: func(c *cli.Context) error {
			deps, err := newDeps(c).Build()
			if err != nil {
				return err
			}
			defer deps.Defer()

			content, err := deps.Cfg.ToTOML()
			if err != nil {
				return err
			}
			fmt.Fprint(c.App.Writer, content)
			return nil
		},
	}
}
