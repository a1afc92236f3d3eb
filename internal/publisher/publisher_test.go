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

package publisher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/db"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/publisher"
)

func newPublisher(t *testing.T) *publisher.Publisher {
	t.Helper()
	root := t.TempDir()
	repo := filepath.Join(root, "packaging", "distro")
	work := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(work, 0o755))

	return &publisher.Publisher{
		Name:    "valmond",
		WorkDir: work,
		RepoDir: repo,
		RepoSubdirs: map[string]string{
			"deb": filepath.Join(repo, "debian"),
			"rpm": filepath.Join(repo, "centos"),
		},
	}
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPublishEmptyWorkDir(t *testing.T) {
	p := newPublisher(t)

	published, err := p.Publish(context.Background(), "2.3.0")
	require.NoError(t, err)
	assert.Empty(t, published)

	assert.DirExists(t, p.RepoSubdirs["deb"])
	assert.DirExists(t, p.RepoSubdirs["rpm"])

	entries, err := os.ReadDir(p.RepoSubdirs["deb"])
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishCopiesByFormat(t *testing.T) {
	p := newPublisher(t)
	write(t, p.WorkDir, "valmond_2.3.0_amd64.deb", "deb")
	write(t, p.WorkDir, "valmond-2.3.0-1.x86_64.rpm", "rpm")
	write(t, p.WorkDir, "notes.txt", "ignored")

	published, err := p.Publish(context.Background(), "2.3.0")
	require.NoError(t, err)
	require.Len(t, published, 2)

	data, err := os.ReadFile(filepath.Join(p.RepoSubdirs["deb"], "valmond_2.3.0_amd64.deb"))
	require.NoError(t, err)
	assert.Equal(t, "deb", string(data))

	data, err = os.ReadFile(filepath.Join(p.RepoSubdirs["rpm"], "valmond-2.3.0-1.x86_64.rpm"))
	require.NoError(t, err)
	assert.Equal(t, "rpm", string(data))

	assert.NoFileExists(t, filepath.Join(p.RepoSubdirs["deb"], "notes.txt"))
	assert.NoFileExists(t, filepath.Join(p.RepoSubdirs["deb"], "valmond-2.3.0-1.x86_64.rpm"))

	// copied, not moved
	assert.FileExists(t, filepath.Join(p.WorkDir, "valmond_2.3.0_amd64.deb"))
}

func TestPublishOverwrites(t *testing.T) {
	p := newPublisher(t)
	require.NoError(t, os.MkdirAll(p.RepoSubdirs["deb"], 0o755))
	write(t, p.RepoSubdirs["deb"], "valmond_2.3.0_amd64.deb", "old")
	write(t, p.WorkDir, "valmond_2.3.0_amd64.deb", "new")

	_, err := p.Publish(context.Background(), "2.3.0")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(p.RepoSubdirs["deb"], "valmond_2.3.0_amd64.deb"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestPublishToleratesBrokenRepoDir(t *testing.T) {
	p := newPublisher(t)
	// a file where the repository root should be
	require.NoError(t, os.MkdirAll(filepath.Dir(p.RepoDir), 0o755))
	write(t, filepath.Dir(p.RepoDir), filepath.Base(p.RepoDir), "not a dir")

	published, err := p.Publish(context.Background(), "2.3.0")
	require.NoError(t, err)
	assert.Empty(t, published)
}

func TestPublishIntoWorkDirFails(t *testing.T) {
	p := newPublisher(t)
	p.WorkDir = p.RepoSubdirs["deb"]
	require.NoError(t, os.MkdirAll(p.WorkDir, 0o755))
	path := write(t, p.WorkDir, "valmond_2.3.0_amd64.deb", "payload")

	_, err := p.Publish(context.Background(), "2.3.0")
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestPublishRecordsLedger(t *testing.T) {
	ctx := context.Background()
	ledger := db.New(":memory:")
	require.NoError(t, ledger.Init(ctx))
	defer ledger.Close()

	p := newPublisher(t)
	p.Ledger = ledger
	write(t, p.WorkDir, "valmond_2.3.0-4-gabcdef_amd64.deb", "test")

	_, err := p.Publish(ctx, "2.3.0-4-gabcdef")
	require.NoError(t, err)

	rows, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "valmond", rows[0].Name)
	assert.Equal(t, "deb", rows[0].Format)
	assert.Equal(t, "2.3.0-4-gabcdef", rows[0].Version)
	assert.Equal(t, "valmond_2.3.0-4-gabcdef_amd64.deb", rows[0].File)
	assert.Equal(t, int64(4), rows[0].Size)
	// sha256("test")
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", rows[0].SHA256)
}

func TestCleanup(t *testing.T) {
	p := newPublisher(t)
	write(t, p.WorkDir, "valmond_2.3.0_amd64.deb", "deb")
	write(t, p.WorkDir, "valmond-2.3.0-1.x86_64.rpm", "rpm")
	keep := write(t, p.WorkDir, "valpkg.toml", "name = 'valmond'")

	require.NoError(t, p.Cleanup())

	matches, err := filepath.Glob(filepath.Join(p.WorkDir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, matches)

	// nothing left to remove
	require.NoError(t, p.Cleanup())
}
