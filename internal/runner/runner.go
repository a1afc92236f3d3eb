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

// Package runner is the single gateway through which valpkg starts external
// processes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"github.com/leonelquinteros/gotext"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Command describes one external invocation.
type Command struct {
	// Line is a shell program when Shell is set, otherwise a command line
	// that is split into arguments. Ignored when Args is set.
	Line string
	Args []string

	Shell bool
	// Passthrough hands the parent's stdio to the child instead of
	// capturing combined output.
	Passthrough bool
	// AllowFailure turns a failure into a warning and a nil result.
	AllowFailure bool

	Dir string
	Env []string
}

func (c Command) String() string {
	if len(c.Args) > 0 {
		return strings.Join(c.Args, " ")
	}
	return c.Line
}

// Result is what a successful command produced. Output is empty in
// passthrough mode.
type Result struct {
	Output   string
	Captured bool
}

// CommandError is returned for every non-tolerated failure.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command '%s' failed with exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command '%s' failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Runner executes commands as child processes. Shell commands run in an
// embedded POSIX shell interpreter; everything else goes through os/exec.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New() *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	slog.Debug(gotext.Get("Running command"), "cmd", cmd.String(), "shell", cmd.Shell)

	var (
		out    bytes.Buffer
		stdin  io.Reader
		stdout io.Writer = &out
		stderr io.Writer = &out
	)
	if cmd.Passthrough {
		stdin, stdout, stderr = r.Stdin, r.Stdout, r.Stderr
	}

	var (
		code int
		err  error
	)
	if cmd.Shell {
		code, err = runShell(ctx, cmd, stdin, stdout, stderr)
	} else {
		code, err = runExec(ctx, cmd, stdin, stdout, stderr)
	}

	output := strings.TrimSpace(out.String())
	if err == nil && code == 0 {
		return &Result{Output: output, Captured: !cmd.Passthrough}, nil
	}

	cmdErr := &CommandError{
		Command:  cmd.String(),
		ExitCode: code,
		Output:   output,
		Err:      err,
	}

	if cmd.AllowFailure {
		slog.Warn(gotext.Get("Command failed, continuing"), "cmd", cmdErr.Command, "err", cmdErr, "output", output)
		return nil, nil
	}
	return nil, cmdErr
}

// runExec returns the child's exit code, or -1 with an error when the
// process could not be started at all.
func runExec(ctx context.Context, cmd Command, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	args := cmd.Args
	if len(args) == 0 {
		var err error
		args, err = shlex.Split(cmd.Line)
		if err != nil {
			return -1, err
		}
	}
	if len(args) == 0 {
		return -1, errors.New(gotext.Get("empty command"))
	}

	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Dir = cmd.Dir
	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	err := c.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func runShell(ctx context.Context, cmd Command, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "")
	if err != nil {
		return -1, err
	}

	env := append(os.Environ(), cmd.Env...)
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(stdin, stdout, stderr),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return -1, err
	}

	err = runner.Run(ctx, file)
	if err == nil {
		return 0, nil
	}
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status), nil
	}
	return -1, err
}
