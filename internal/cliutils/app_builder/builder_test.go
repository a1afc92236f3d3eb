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

package appbuilder_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbuilder "gitea.plemya-x.ru/Plemya-x/valpkg/internal/cliutils/app_builder"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "valpkg.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildWithoutLedger(t *testing.T) {
	path := writeConfig(t, "root = \""+t.TempDir()+"\"\n")

	deps, err := appbuilder.New(context.Background()).
		WithConfig(path).
		WithPaths().
		UseExecutor(&runner.Fake{}).
		WithDB().
		WithPipeline(false).
		Build()
	require.NoError(t, err)
	defer deps.Defer()

	assert.Nil(t, deps.DB)
	assert.NotNil(t, deps.Pipeline)
	assert.Nil(t, deps.Pipeline.Publisher.Ledger)
}

func TestBuildWithLedger(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, "root = \""+root+"\"\nledgerPath = \"ledger.db\"\n")

	deps, err := appbuilder.New(context.Background()).
		WithConfig(path).
		WithPaths().
		UseExecutor(&runner.Fake{}).
		WithDB().
		WithPipeline(true).
		Build()
	require.NoError(t, err)
	defer deps.Defer()

	require.NotNil(t, deps.DB)
	assert.FileExists(t, filepath.Join(root, "ledger.db"))
	assert.NotNil(t, deps.Pipeline.Publisher.Ledger)
	assert.True(t, deps.Pipeline.Compiler.Stream)
}

func TestOverridesAreValidated(t *testing.T) {
	path := writeConfig(t, "")

	_, err := appbuilder.New(context.Background()).
		WithConfig(path, func(cfg *config.Config) { cfg.Packager = "checkinstall" }).
		Build()
	assert.Error(t, err)

	deps, err := appbuilder.New(context.Background()).
		WithConfig(path, func(cfg *config.Config) { cfg.Packager = config.PackagerNFPM }).
		Build()
	require.NoError(t, err)
	assert.Equal(t, config.PackagerNFPM, deps.Cfg.Packager)
}

func TestOrderIsEnforced(t *testing.T) {
	_, err := appbuilder.New(context.Background()).
		WithPaths().
		Build()
	assert.Error(t, err)

	_, err = appbuilder.New(context.Background()).
		UseConfig(config.Default()).
		WithPaths().
		WithPipeline(false).
		Build()
	assert.Error(t, err)
}

func TestWithResolver(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()

	deps, err := appbuilder.New(context.Background()).
		UseConfig(cfg).
		WithPaths().
		UseExecutor(&runner.Fake{Handler: func(runner.Command) (string, int) { return "2.3.0", 0 }}).
		WithResolver().
		Build()
	require.NoError(t, err)

	ver, err := deps.Resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.3.0", ver)
}
