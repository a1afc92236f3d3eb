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

// Package stager builds the directory tree the packaging tool turns into a
// package. The tree mirrors what ends up on the target machine.
package stager

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leonelquinteros/gotext"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/fsutils"
)

// Template maps a file from the packaging directory to its place in the tree.
type Template struct {
	Source string
	Dest   string
}

// Layout lists, relative to the tree root, everything a staged tree contains.
type Layout struct {
	Dirs      []string
	Binaries  []string
	Templates []Template
}

// LayoutFor returns the installation layout of the package called name.
func LayoutFor(name string) Layout {
	return Layout{
		Dirs: []string{
			filepath.Join("etc", "opt", name),
			filepath.Join("opt", name),
			filepath.Join("usr", "bin"),
			filepath.Join("var", "log", name),
			filepath.Join("usr", "lib", "tmpfiles.d"),
			filepath.Join("opt", name, "scripts"),
		},
		Binaries: []string{
			filepath.Join("opt", name, name),
			filepath.Join("usr", "bin", name),
		},
		Templates: []Template{
			{Source: "tmpfilesd_" + name + ".conf", Dest: filepath.Join("usr", "lib", "tmpfiles.d", name+".conf")},
			{Source: "init.sh", Dest: filepath.Join("opt", name, "scripts", "init.sh")},
			{Source: name + ".service", Dest: filepath.Join("opt", name, "scripts", name+".service")},
			{Source: name + ".cfg", Dest: filepath.Join("etc", "opt", name, name+".cfg")},
		},
	}
}

// Files returns every regular file of the layout.
func (l Layout) Files() []string {
	out := make([]string, 0, len(l.Binaries)+len(l.Templates))
	out = append(out, l.Binaries...)
	for _, t := range l.Templates {
		out = append(out, t.Dest)
	}
	return out
}

type Stager struct {
	Name         string
	Binary       string
	PackagingDir string
	BuildDir     string
}

// Stage deletes whatever is at BuildDir and rebuilds the tree from the
// binary and the templates. Nothing from a previous run survives.
func (s *Stager) Stage() error {
	layout := LayoutFor(s.Name)

	slog.Info(gotext.Get("Creating package filesystem"), "dir", s.BuildDir)

	if err := fsutils.RemoveTree(s.BuildDir); err != nil {
		return fmt.Errorf("failed to remove old build directory: %w", err)
	}

	dirs := []string{s.BuildDir}
	for _, d := range layout.Dirs {
		dirs = append(dirs, filepath.Join(s.BuildDir, d))
	}
	if err := fsutils.EnsureDirs(0o755, dirs...); err != nil {
		return err
	}

	if err := fsutils.MakeExecutable(s.Binary); err != nil {
		return fmt.Errorf("failed to mark binary executable: %w", err)
	}

	for _, dst := range layout.Binaries {
		if err := fsutils.CopyFile(s.Binary, filepath.Join(s.BuildDir, dst)); err != nil {
			return fmt.Errorf("failed to install binary to %s: %w", dst, err)
		}
	}

	for _, t := range layout.Templates {
		src := filepath.Join(s.PackagingDir, t.Source)
		slog.Debug(gotext.Get("Copying template"), "src", src, "dst", t.Dest)
		if err := fsutils.CopyFile(src, filepath.Join(s.BuildDir, t.Dest)); err != nil {
			return fmt.Errorf("failed to copy template %s: %w", t.Source, err)
		}
	}

	return nil
}
