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
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leonelquinteros/gotext"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/version"
)

// Target is one (architecture, output format) pair.
type Target struct {
	Arch   string
	Format string
}

func (t Target) String() string {
	return t.Arch + "/" + t.Format
}

// Targets returns every combination of archs and formats, archs outermost.
func Targets(archs, formats []string) []Target {
	out := make([]Target, 0, len(archs)*len(formats))
	for _, arch := range archs {
		for _, format := range formats {
			out = append(out, Target{Arch: arch, Format: format})
		}
	}
	return out
}

type Scripts struct {
	PostInstall   string
	PostUninstall string
	PreUninstall  string
}

// Metadata is everything the packaging tool is told about one artifact.
type Metadata struct {
	Name        string
	Version     string
	Epoch       string
	Target      Target
	SourceDir   string
	Maintainer  string
	Vendor      string
	Description string
	Homepage    string
	License     string
	Conflicts   []string
	Depends     []string
	Scripts     Scripts
}

// Backend turns a staged tree into one package file in the output directory.
type Backend interface {
	Name() string
	Package(ctx context.Context, meta Metadata) error
}

type Builder struct {
	Cfg      *config.Config
	Paths    *config.Paths
	Resolver version.Resolver
	Backend  Backend
}

// NewBackend returns the backend selected by cfg.Packager.
func NewBackend(cfg *config.Config, paths *config.Paths, exec runner.Executor) (Backend, error) {
	switch cfg.Packager {
	case config.PackagerFPM, "":
		return &FPM{Exec: exec, Bin: cfg.FPM, OutDir: paths.WorkDir}, nil
	case config.PackagerNFPM:
		return &NFPM{OutDir: paths.WorkDir}, nil
	}
	return nil, fmt.Errorf("unknown packager %q", cfg.Packager)
}

// Build packages every target in order and stops at the first failure.
// It returns the version the last package was built with.
func (b *Builder) Build(ctx context.Context, targets []Target) (string, error) {
	var ver string
	for _, t := range targets {
		slog.Info(gotext.Get("Building package"), "arch", t.Arch, "format", t.Format, "packager", b.Backend.Name())

		var err error
		ver, err = b.Resolver.Resolve(ctx)
		if err != nil {
			return "", err
		}

		if err := b.Backend.Package(ctx, b.Metadata(t, ver)); err != nil {
			return "", fmt.Errorf("%s: %w", t, err)
		}
	}
	return ver, nil
}

func (b *Builder) Metadata(t Target, ver string) Metadata {
	depends := append([]string{}, b.Cfg.Depends...)
	depends = append(depends, b.Cfg.FormatDepends[t.Format]...)

	return Metadata{
		Name:        b.Cfg.Name,
		Version:     ver,
		Epoch:       b.Cfg.Epoch,
		Target:      t,
		SourceDir:   b.Paths.BuildDir,
		Maintainer:  b.Cfg.Maintainer,
		Vendor:      b.Cfg.Vendor,
		Description: b.Cfg.Description,
		Homepage:    b.Cfg.Homepage,
		License:     b.Cfg.License,
		Conflicts:   []string{fmt.Sprintf("%s < %s", b.Cfg.Name, ver)},
		Depends:     depends,
		Scripts: Scripts{
			PostInstall:   filepath.Join(b.Paths.PackagingDir, "postinst.sh"),
			PostUninstall: filepath.Join(b.Paths.PackagingDir, "postrm.sh"),
			PreUninstall:  filepath.Join(b.Paths.PackagingDir, "prerm.sh"),
		},
	}
}
