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

// Package pipeline runs a release from compile to cleanup.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leonelquinteros/gotext"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/compiler"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/packager"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/publisher"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/stager"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/version"
)

type State int

const (
	Start State = iota
	Compiling
	Staging
	Packaging
	Publishing
	CleaningUp
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case Compiling:
		return "compiling"
	case Staging:
		return "staging"
	case Packaging:
		return "packaging"
	case Publishing:
		return "publishing"
	case CleaningUp:
		return "cleaning up"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Stream bool
	Ledger publisher.Ledger
}

type Pipeline struct {
	Compiler  *compiler.Compiler
	Stager    *stager.Stager
	Builder   *packager.Builder
	Publisher *publisher.Publisher
	Archs     []string

	state State
}

// Report summarises a finished run.
type Report struct {
	Version   string
	BuildTime time.Duration
	Artifacts []publisher.Artifact
}

// New wires every step from cfg. exec runs all external commands.
func New(cfg *config.Config, paths *config.Paths, exec runner.Executor, opts Options) (*Pipeline, error) {
	resolver, err := version.New(cfg.VersionSource, exec, paths.Root)
	if err != nil {
		return nil, err
	}

	backend, err := packager.NewBackend(cfg, paths, exec)
	if err != nil {
		return nil, err
	}

	pub := &publisher.Publisher{
		Name:        cfg.Name,
		WorkDir:     paths.WorkDir,
		RepoDir:     paths.RepoDir,
		RepoSubdirs: paths.RepoSubdirs,
	}
	if opts.Ledger != nil {
		pub.Ledger = opts.Ledger
	}

	return &Pipeline{
		Compiler: &compiler.Compiler{
			Exec:        exec,
			Resolver:    resolver,
			Name:        cfg.Name,
			Binary:      paths.Binary,
			BuildScript: paths.BuildScript,
			BuildParams: cfg.BuildParams,
			Dir:         paths.Root,
			Stream:      opts.Stream,
		},
		Stager: &stager.Stager{
			Name:         cfg.Name,
			Binary:       paths.Binary,
			PackagingDir: paths.PackagingDir,
			BuildDir:     paths.BuildDir,
		},
		Builder: &packager.Builder{
			Cfg:      cfg,
			Paths:    paths,
			Resolver: resolver,
			Backend:  backend,
		},
		Publisher: pub,
		Archs:     cfg.Archs,
	}, nil
}

func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) enter(s State) {
	if s <= p.state && s != Failed {
		panic(fmt.Sprintf("pipeline: cannot move from %s back to %s", p.state, s))
	}
	slog.Debug(gotext.Get("Pipeline state"), "from", p.state, "to", s)
	p.state = s
}

func (p *Pipeline) fail(step State, err error) error {
	p.enter(Failed)
	return fmt.Errorf("%s: %w", step, err)
}

// Run executes every step once, in order. The first failing step ends the
// run; nothing is rolled back and the error names the step.
func (p *Pipeline) Run(ctx context.Context, formats []string) (*Report, error) {
	if p.state != Start {
		return nil, fmt.Errorf("pipeline already ran (state %s)", p.state)
	}
	if err := config.ValidateFormats(formats); err != nil {
		return nil, err
	}

	report := &Report{}

	p.enter(Compiling)
	taken, err := p.Compiler.Compile(ctx)
	if err != nil {
		return nil, p.fail(Compiling, err)
	}
	report.BuildTime = taken

	p.enter(Staging)
	if err := p.Stager.Stage(); err != nil {
		return nil, p.fail(Staging, err)
	}

	p.enter(Packaging)
	ver, err := p.Builder.Build(ctx, packager.Targets(p.Archs, formats))
	if err != nil {
		return nil, p.fail(Packaging, err)
	}
	report.Version = ver

	p.enter(Publishing)
	report.Artifacts, err = p.Publisher.Publish(ctx, ver)
	if err != nil {
		return nil, p.fail(Publishing, err)
	}

	p.enter(CleaningUp)
	if err := p.Publisher.Cleanup(); err != nil {
		return nil, p.fail(CleaningUp, err)
	}

	p.enter(Done)
	slog.Info(gotext.Get("Done"), "version", ver, "packages", len(report.Artifacts))
	return report, nil
}
