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

package runner

import (
	"context"
	"log/slog"
	"sync"
)

// Fake is an Executor for tests. It records every command and answers
// through Handler; without a Handler every command succeeds with empty
// output.
type Fake struct {
	mu sync.Mutex

	Calls   []Command
	Handler func(cmd Command) (string, int)
}

func (f *Fake) Run(ctx context.Context, cmd Command) (*Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	f.mu.Unlock()

	out, code := "", 0
	if f.Handler != nil {
		out, code = f.Handler(cmd)
	}
	if code == 0 {
		if cmd.Passthrough {
			return &Result{}, nil
		}
		return &Result{Output: out, Captured: true}, nil
	}

	cmdErr := &CommandError{Command: cmd.String(), ExitCode: code, Output: out}
	if cmd.AllowFailure {
		slog.Warn("Command failed, continuing", "cmd", cmdErr.Command, "err", cmdErr)
		return nil, nil
	}
	return nil, cmdErr
}

// Commands returns the string form of every recorded call.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}
