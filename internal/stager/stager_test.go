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

package stager_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/stager"
)

func newStager(t *testing.T) *stager.Stager {
	t.Helper()
	root := t.TempDir()
	packaging := filepath.Join(root, "packaging")
	require.NoError(t, os.MkdirAll(packaging, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))

	for name, content := range map[string]string{
		"tmpfilesd_valmond.conf": "d /run/valmond 0755 root root -\n",
		"init.sh":                "#!/bin/sh\necho init\n",
		"valmond.service":        "[Unit]\nDescription=valmond\n",
		"valmond.cfg":            "[server]\nport = 8080\n",
		"postinst.sh":            "#!/bin/sh\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(packaging, name), []byte(content), 0o644))
	}

	binary := filepath.Join(root, "bin", "valmond")
	require.NoError(t, os.WriteFile(binary, []byte("\x7fELF-valmond"), 0o644))

	return &stager.Stager{
		Name:         "valmond",
		Binary:       binary,
		PackagingDir: packaging,
		BuildDir:     filepath.Join(packaging, "build"),
	}
}

func walk(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." {
			out = append(out, rel)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func TestStageProducesExactLayout(t *testing.T) {
	s := newStager(t)
	require.NoError(t, s.Stage())

	layout := stager.LayoutFor("valmond")
	expected := map[string]struct{}{}
	for _, d := range layout.Dirs {
		for p := d; p != "."; p = filepath.Dir(p) {
			expected[p] = struct{}{}
		}
	}
	for _, f := range layout.Files() {
		expected[f] = struct{}{}
	}
	var exp []string
	for p := range expected {
		exp = append(exp, p)
	}
	sort.Strings(exp)

	assert.Equal(t, exp, walk(t, s.BuildDir))
}

func TestStageInstallsExecutableBinary(t *testing.T) {
	s := newStager(t)
	require.NoError(t, s.Stage())

	for _, dst := range []string{"opt/valmond/valmond", "usr/bin/valmond"} {
		path := filepath.Join(s.BuildDir, dst)
		fi, err := os.Stat(path)
		require.NoError(t, err, dst)
		assert.NotZero(t, fi.Mode()&0o111, dst)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "\x7fELF-valmond", string(data))
	}

	fi, err := os.Stat(s.Binary)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&0o111)
}

func TestStageCopiesTemplatesVerbatim(t *testing.T) {
	s := newStager(t)
	require.NoError(t, s.Stage())

	for _, tpl := range stager.LayoutFor("valmond").Templates {
		src, err := os.ReadFile(filepath.Join(s.PackagingDir, tpl.Source))
		require.NoError(t, err)
		dst, err := os.ReadFile(filepath.Join(s.BuildDir, tpl.Dest))
		require.NoError(t, err)
		assert.Equal(t, src, dst, tpl.Dest)
	}

	assert.FileExists(t, filepath.Join(s.BuildDir, "usr", "lib", "tmpfiles.d", "valmond.conf"))
	assert.FileExists(t, filepath.Join(s.BuildDir, "etc", "opt", "valmond", "valmond.cfg"))
	assert.DirExists(t, filepath.Join(s.BuildDir, "var", "log", "valmond"))
}

func TestStageRemovesLeftovers(t *testing.T) {
	s := newStager(t)
	require.NoError(t, s.Stage())
	first := walk(t, s.BuildDir)

	leftover := filepath.Join(s.BuildDir, "opt", "valmond", "stale.so")
	require.NoError(t, os.WriteFile(leftover, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.BuildDir, "usr", "bin", "valmond"), []byte("corrupt"), 0o755))

	require.NoError(t, s.Stage())

	assert.NoFileExists(t, leftover)
	assert.Equal(t, first, walk(t, s.BuildDir))
	data, err := os.ReadFile(filepath.Join(s.BuildDir, "usr", "bin", "valmond"))
	require.NoError(t, err)
	assert.Equal(t, "\x7fELF-valmond", string(data))
}

func TestStageMissingBinary(t *testing.T) {
	s := newStager(t)
	require.NoError(t, os.Remove(s.Binary))

	assert.Error(t, s.Stage())
}

func TestStageMissingTemplate(t *testing.T) {
	s := newStager(t)
	require.NoError(t, os.Remove(filepath.Join(s.PackagingDir, "valmond.service")))

	assert.Error(t, s.Stage())
}
