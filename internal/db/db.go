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

// Package db keeps a ledger of published packages in SQLite.
package db

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leonelquinteros/gotext"
	"go.elara.ws/vercmp"
	_ "modernc.org/sqlite"
)

const CurrentVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS published (
	name         TEXT    NOT NULL,
	format       TEXT    NOT NULL,
	version      TEXT    NOT NULL,
	file         TEXT    NOT NULL,
	sha256       TEXT    NOT NULL,
	size         INTEGER NOT NULL,
	published_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_version (
	version INTEGER NOT NULL
);
`

// Published is one package copied into a repository.
type Published struct {
	Name        string    `db:"name"`
	Format      string    `db:"format"`
	Version     string    `db:"version"`
	File        string    `db:"file"`
	SHA256      string    `db:"sha256"`
	Size        int64     `db:"size"`
	PublishedAt time.Time `db:"-"`
}

type row struct {
	Published
	Unix int64 `db:"published_at"`
}

type Database struct {
	path string
	conn *sqlx.DB
}

// New returns a ledger stored at path. ":memory:" keeps it in memory.
func New(path string) *Database {
	return &Database{path: path}
}

func (d *Database) Connect() error {
	conn, err := sqlx.Open("sqlite", d.path)
	if err != nil {
		return err
	}
	// one connection, so that ":memory:" is a single database
	conn.SetMaxOpenConns(1)
	d.conn = conn
	return nil
}

// Init connects and creates the schema. A ledger written by a different
// schema version is dropped and recreated.
func (d *Database) Init(ctx context.Context) error {
	if d.conn == nil {
		if err := d.Connect(); err != nil {
			return err
		}
	}
	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return err
	}

	ver, ok := d.GetVersion(ctx)
	if ok && ver != CurrentVersion {
		slog.Warn(gotext.Get("Ledger version mismatch; resetting"), "version", ver, "expected", CurrentVersion)
		if err := d.reset(ctx); err != nil {
			return err
		}
		return d.Init(ctx)
	} else if !ok {
		return d.addVersion(ctx, CurrentVersion)
	}
	return nil
}

func (d *Database) GetVersion(ctx context.Context) (int, bool) {
	var ver int
	err := d.conn.GetContext(ctx, &ver, "SELECT version FROM ledger_version LIMIT 1")
	if err != nil {
		return 0, false
	}
	return ver, true
}

func (d *Database) addVersion(ctx context.Context, ver int) error {
	_, err := d.conn.ExecContext(ctx, "INSERT INTO ledger_version(version) VALUES (?)", ver)
	return err
}

func (d *Database) reset(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, "DROP TABLE IF EXISTS published; DROP TABLE IF EXISTS ledger_version;")
	return err
}

func (d *Database) Insert(ctx context.Context, p Published) error {
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now()
	}
	_, err := d.conn.NamedExecContext(ctx, `
		INSERT INTO published (name, format, version, file, sha256, size, published_at)
		VALUES (:name, :format, :version, :file, :sha256, :size, :published_at)`,
		row{Published: p, Unix: p.PublishedAt.Unix()},
	)
	return err
}

// List returns every ledger entry, newest version first. Entries of the
// same version are ordered by publication time, newest first.
func (d *Database) List(ctx context.Context) ([]Published, error) {
	var rows []row
	err := d.conn.SelectContext(ctx, &rows, "SELECT name, format, version, file, sha256, size, published_at FROM published")
	if err != nil {
		return nil, err
	}

	out := make([]Published, len(rows))
	for i, r := range rows {
		out[i] = r.Published
		out[i].PublishedAt = time.Unix(r.Unix, 0)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := vercmp.Compare(out[i].Version, out[j].Version); c != 0 {
			return c > 0
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out, nil
}

func (d *Database) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
