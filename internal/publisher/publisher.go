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

// Package publisher moves finished packages from the working directory
// into the repository tree.
package publisher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/leonelquinteros/gotext"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/db"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/fsutils"
)

// Ledger records published packages.
type Ledger interface {
	Insert(ctx context.Context, p db.Published) error
}

type Publisher struct {
	Name    string
	WorkDir string
	RepoDir string
	// RepoSubdirs maps a format, which is also the file extension, to the
	// directory its packages are copied into.
	RepoSubdirs map[string]string
	// Ledger is optional.
	Ledger Ledger
}

// Artifact is a package file copied into the repository.
type Artifact struct {
	Format string
	Source string
	Dest   string
}

func (p *Publisher) formats() []string {
	out := make([]string, 0, len(p.RepoSubdirs))
	for f := range p.RepoSubdirs {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Publish copies every package in WorkDir into the subdirectory for its
// format, overwriting files of the same name. The originals stay in
// WorkDir. version is recorded in the ledger.
func (p *Publisher) Publish(ctx context.Context, version string) ([]Artifact, error) {
	p.ensureDirs()

	var published []Artifact
	for _, format := range p.formats() {
		matches, err := glob(p.WorkDir, format)
		if err != nil {
			return published, err
		}

		dir := p.RepoSubdirs[format]
		for _, src := range matches {
			slog.Info(gotext.Get("Publishing package"), "file", filepath.Base(src), "dir", dir)

			dst, err := fsutils.CopyInto(src, dir)
			if err != nil {
				return published, fmt.Errorf("failed to copy %s: %w", filepath.Base(src), err)
			}
			published = append(published, Artifact{Format: format, Source: src, Dest: dst})

			if p.Ledger != nil {
				if err := p.record(ctx, format, version, dst); err != nil {
					return published, fmt.Errorf("failed to record %s: %w", filepath.Base(dst), err)
				}
			}
		}
	}
	return published, nil
}

// ensureDirs creates the repository directories. Failures are only logged.
func (p *Publisher) ensureDirs() {
	dirs := []string{p.RepoDir}
	for _, format := range p.formats() {
		dirs = append(dirs, p.RepoSubdirs[format])
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn(gotext.Get("Could not create repository directory"), "dir", dir, "err", err)
		}
	}
}

func (p *Publisher) record(ctx context.Context, format, version, path string) error {
	sum, size, err := checksum(path)
	if err != nil {
		return err
	}
	return p.Ledger.Insert(ctx, db.Published{
		Name:    p.Name,
		Format:  format,
		Version: version,
		File:    filepath.Base(path),
		SHA256:  sum,
		Size:    size,
	})
}

// Cleanup removes every package file of a known format from WorkDir.
// Files that cannot be removed are logged and left behind.
func (p *Publisher) Cleanup() error {
	for _, format := range p.formats() {
		matches, err := glob(p.WorkDir, format)
		if err != nil {
			return err
		}
		for _, path := range matches {
			slog.Debug(gotext.Get("Removing package"), "file", path)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				slog.Warn(gotext.Get("Could not remove package"), "file", path, "err", err)
			}
		}
	}
	return nil
}

func glob(dir, ext string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*."+ext))
}

func checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
