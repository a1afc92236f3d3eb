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

package config

import (
	"path/filepath"
)

// Paths holds the absolute locations a run reads from and writes to.
type Paths struct {
	Root         string
	Binary       string
	BuildScript  string
	BuildDir     string
	PackagingDir string
	RepoDir      string
	WorkDir      string
	LedgerPath   string
	RepoSubdirs  map[string]string
}

// Paths resolves every configured location against the project root.
// The root itself is resolved against the current directory.
func (c *Config) Paths() (*Paths, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, err
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	workDir := c.WorkDir
	if workDir == "" {
		workDir = "."
	}
	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, err
	}

	subdirs := make(map[string]string, len(c.RepoSubdirs))
	for format, dir := range c.RepoSubdirs {
		subdirs[format] = filepath.Join(resolve(c.RepoDir), dir)
	}

	return &Paths{
		Root:         root,
		Binary:       resolve(c.Binary),
		BuildScript:  resolve(c.BuildScript),
		BuildDir:     resolve(c.BuildDir),
		PackagingDir: resolve(c.PackagingDir),
		RepoDir:      resolve(c.RepoDir),
		WorkDir:      workDir,
		LedgerPath:   resolve(c.LedgerPath),
		RepoSubdirs:  subdirs,
	}, nil
}
