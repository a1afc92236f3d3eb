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

package version

import (
	"context"
	"errors"
	"fmt"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
)

// Resolver produces the human readable version of the project. Results are
// never cached: two calls may disagree if a commit lands in between.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// GitDescribe asks the git binary for `describe --always --tags`.
type GitDescribe struct {
	Exec runner.Executor
	Dir  string
}

func (g *GitDescribe) Resolve(ctx context.Context) (string, error) {
	res, err := g.Exec.Run(ctx, runner.Command{
		Args: []string{"git", "describe", "--always", "--tags"},
		Dir:  g.Dir,
	})
	if err != nil {
		return "", err
	}
	if res == nil || res.Output == "" {
		return "", errors.New("git describe returned no version")
	}
	return res.Output, nil
}

// New picks the resolver configured by source.
func New(source string, exec runner.Executor, dir string) (Resolver, error) {
	switch source {
	case config.VersionGit, "":
		return &GitDescribe{Exec: exec, Dir: dir}, nil
	case config.VersionGoGit:
		return &Native{Dir: dir}, nil
	}
	return nil, fmt.Errorf("unknown version source %q", source)
}
