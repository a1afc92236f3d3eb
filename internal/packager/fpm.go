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

package packager

import (
	"context"
	"log/slog"

	"github.com/leonelquinteros/gotext"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
)

// FPM drives the external fpm tool. fpm writes the package into the
// directory it runs in.
type FPM struct {
	Exec   runner.Executor
	Bin    string
	OutDir string
}

func (f *FPM) Name() string {
	return "fpm"
}

func (f *FPM) Package(ctx context.Context, meta Metadata) error {
	res, err := f.Exec.Run(ctx, runner.Command{
		Args: f.Args(meta),
		Dir:  f.OutDir,
	})
	if err != nil {
		return err
	}
	if res != nil && res.Output != "" {
		slog.Debug(gotext.Get("fpm output"), "output", res.Output)
	}
	return nil
}

// Args is the full fpm command line for meta. The staged tree is the
// package root, so its content is passed as ".".
func (f *FPM) Args(meta Metadata) []string {
	bin := f.Bin
	if bin == "" {
		bin = "fpm"
	}

	args := []string{bin}
	if meta.Epoch != "" {
		args = append(args, "--epoch", meta.Epoch)
	}
	args = append(args,
		"--force",
		"--input-type", "dir",
		"--output-type", meta.Target.Format,
		"--chdir", meta.SourceDir,
		"--maintainer", meta.Maintainer,
		"--url", meta.Homepage,
		"--description", meta.Description,
		"--version", meta.Version,
	)
	for _, c := range meta.Conflicts {
		args = append(args, "--conflicts", c)
	}
	args = append(args,
		"--vendor", meta.Vendor,
		"--name", meta.Name,
	)
	if meta.License != "" {
		args = append(args, "--license", meta.License)
	}
	for _, d := range meta.Depends {
		args = append(args, "--depends", d)
	}
	args = append(args,
		"--architecture", meta.Target.Arch,
		"--post-install", meta.Scripts.PostInstall,
		"--post-uninstall", meta.Scripts.PostUninstall,
		"--pre-uninstall", meta.Scripts.PreUninstall,
		".",
	)
	return args
}
