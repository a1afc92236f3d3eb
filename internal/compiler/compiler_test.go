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

package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
)

type staticVersion string

func (s staticVersion) Resolve(ctx context.Context) (string, error) {
	return string(s), nil
}

func newCompiler(t *testing.T, exec runner.Executor) *Compiler {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	return &Compiler{
		Exec:        exec,
		Resolver:    staticVersion("2.3.0-4-gabcdef"),
		Name:        "valmond",
		Binary:      filepath.Join(root, "bin", "valmond"),
		BuildScript: filepath.Join(root, "binary.sh"),
		BuildParams: []string{"-DCMAKE_BUILD_TYPE=Release"},
		Dir:         root,
	}
}

func TestCompileRemovesStaleBinaryAndRuns(t *testing.T) {
	var c *Compiler
	sawStale := true
	f := &runner.Fake{
		Handler: func(cmd runner.Command) (string, int) {
			_, err := os.Stat(c.Binary)
			sawStale = err == nil
			require.NoError(t, os.WriteFile(c.Binary, []byte("new"), 0o644))
			return "built", 0
		},
	}
	c = newCompiler(t, f)
	require.NoError(t, os.WriteFile(c.Binary, []byte("stale"), 0o755))

	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		tick = tick.Add(1500 * time.Millisecond)
		return tick
	}

	taken, err := c.Compile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, taken)
	assert.False(t, sawStale)

	require.Len(t, f.Calls, 1)
	cmd := f.Calls[0]
	assert.True(t, cmd.Shell)
	assert.Contains(t, cmd.Line, "sh ")
	assert.Contains(t, cmd.Line, "binary.sh")
	assert.Contains(t, cmd.Line, "-DCMAKE_BUILD_TYPE=Release")
	assert.Equal(t, c.Dir, cmd.Dir)

	data, err := os.ReadFile(c.Binary)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCompileMissingBinaryIsFine(t *testing.T) {
	var c *Compiler
	f := &runner.Fake{
		Handler: func(cmd runner.Command) (string, int) {
			require.NoError(t, os.WriteFile(c.Binary, []byte("new"), 0o644))
			return "", 0
		},
	}
	c = newCompiler(t, f)

	_, err := c.Compile(context.Background())
	assert.NoError(t, err)
}

func TestCompileToolchainFailure(t *testing.T) {
	f := &runner.Fake{
		Handler: func(cmd runner.Command) (string, int) {
			return "cmake: error", 2
		},
	}
	c := newCompiler(t, f)

	_, err := c.Compile(context.Background())

	var cmdErr *runner.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 2, cmdErr.ExitCode)
}

func TestCompileWithoutBinaryFails(t *testing.T) {
	c := newCompiler(t, &runner.Fake{})

	_, err := c.Compile(context.Background())
	assert.Error(t, err)
}

func TestCompileStream(t *testing.T) {
	var c *Compiler
	f := &runner.Fake{
		Handler: func(cmd runner.Command) (string, int) {
			require.NoError(t, os.WriteFile(c.Binary, []byte("new"), 0o644))
			return "", 0
		},
	}
	c = newCompiler(t, f)
	c.Stream = true

	_, err := c.Compile(context.Background())
	require.NoError(t, err)
	assert.True(t, f.Calls[0].Passthrough)
}

func TestCompileWithRealShell(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "binary.sh")
	require.NoError(t, os.WriteFile(script, []byte("mkdir -p bin\necho \"$1\" > bin/valmond\n"), 0o644))

	c := &Compiler{
		Exec:        runner.New(),
		Resolver:    staticVersion("1.0.0"),
		Name:        "valmond",
		Binary:      filepath.Join(root, "bin", "valmond"),
		BuildScript: script,
		BuildParams: []string{"-DCMAKE_BUILD_TYPE=Release"},
		Dir:         root,
	}

	_, err := c.Compile(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(c.Binary)
	require.NoError(t, err)
	assert.Equal(t, "-DCMAKE_BUILD_TYPE=Release\n", string(data))
}
