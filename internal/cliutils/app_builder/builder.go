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

package appbuilder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leonelquinteros/gotext"

	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/cliutils"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/config"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/db"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/pipeline"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/runner"
	"gitea.plemya-x.ru/Plemya-x/valpkg/internal/version"
)

type AppDeps struct {
	Cfg      *config.Config
	Paths    *config.Paths
	Exec     runner.Executor
	Resolver version.Resolver
	DB       *db.Database
	Pipeline *pipeline.Pipeline
}

func (d *AppDeps) Defer() {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			slog.Warn(gotext.Get("Failed to close ledger"), "err", err)
		}
	}
}

type AppBuilder struct {
	deps AppDeps
	err  error
	ctx  context.Context
}

func New(ctx context.Context) *AppBuilder {
	return &AppBuilder{ctx: ctx}
}

func (b *AppBuilder) UseConfig(cfg *config.Config) *AppBuilder {
	if b.err != nil {
		return b
	}
	b.deps.Cfg = cfg
	return b
}

// WithConfig loads the configuration from path (or the default file) and
// applies overrides to it before it is validated again.
func (b *AppBuilder) WithConfig(path string, overrides ...func(*config.Config)) *AppBuilder {
	if b.err != nil {
		return b
	}

	cfg, err := config.Load(path)
	if err != nil {
		b.err = cliutils.FormatCliExit(gotext.Get("Error loading config"), err)
		return b
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		b.err = cliutils.FormatCliExit(gotext.Get("Invalid configuration"), err)
		return b
	}

	b.deps.Cfg = cfg
	return b
}

func (b *AppBuilder) WithPaths() *AppBuilder {
	if b.err != nil {
		return b
	}

	cfg := b.deps.Cfg
	if cfg == nil {
		b.err = errors.New("config is required before resolving paths")
		return b
	}

	paths, err := cfg.Paths()
	if err != nil {
		b.err = cliutils.FormatCliExit(gotext.Get("Error resolving paths"), err)
		return b
	}
	b.deps.Paths = paths
	return b
}

func (b *AppBuilder) UseExecutor(exec runner.Executor) *AppBuilder {
	if b.err != nil {
		return b
	}
	b.deps.Exec = exec
	return b
}

func (b *AppBuilder) WithExecutor() *AppBuilder {
	return b.UseExecutor(runner.New())
}

func (b *AppBuilder) WithResolver() *AppBuilder {
	if b.err != nil {
		return b
	}

	cfg, paths := b.deps.Cfg, b.deps.Paths
	if cfg == nil || paths == nil || b.deps.Exec == nil {
		b.err = errors.New("config, paths and executor are required before the version resolver")
		return b
	}

	resolver, err := version.New(cfg.VersionSource, b.deps.Exec, paths.Root)
	if err != nil {
		b.err = cliutils.FormatCliExit(gotext.Get("Error creating version resolver"), err)
		return b
	}
	b.deps.Resolver = resolver
	return b
}

// WithDB opens the ledger. Without a configured ledger path it does nothing.
func (b *AppBuilder) WithDB() *AppBuilder {
	if b.err != nil {
		return b
	}

	paths := b.deps.Paths
	if paths == nil {
		b.err = errors.New("paths are required before initializing the ledger")
		return b
	}
	if paths.LedgerPath == "" {
		return b
	}

	ledger := db.New(paths.LedgerPath)
	if err := ledger.Init(b.ctx); err != nil {
		b.err = cliutils.FormatCliExit(gotext.Get("Error initializing ledger"), err)
		return b
	}

	b.deps.DB = ledger
	return b
}

func (b *AppBuilder) WithPipeline(stream bool) *AppBuilder {
	if b.err != nil {
		return b
	}

	cfg, paths := b.deps.Cfg, b.deps.Paths
	if cfg == nil || paths == nil || b.deps.Exec == nil {
		b.err = errors.New("config, paths and executor are required before the pipeline")
		return b
	}

	opts := pipeline.Options{Stream: stream}
	if b.deps.DB != nil {
		opts.Ledger = b.deps.DB
	}

	p, err := pipeline.New(cfg, paths, b.deps.Exec, opts)
	if err != nil {
		b.err = cliutils.FormatCliExit(gotext.Get("Error creating pipeline"), err)
		return b
	}
	b.deps.Pipeline = p
	return b
}

func (b *AppBuilder) Build() (*AppDeps, error) {
	if b.err != nil {
		if b.deps.DB != nil {
			b.deps.DB.Close()
		}
		return nil, b.err
	}
	return &b.deps, nil
}
