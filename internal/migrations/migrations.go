// Package migrations embeds the SQL schema and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"sync"

	"github.com/pressly/goose/v3"
)

const dir = "sql"

//go:embed sql/*.sql
var files embed.FS

var setupOnce sync.Once
var setupErr error

func setup() error {
	setupOnce.Do(func() {
		goose.SetBaseFS(files)
		setupErr = goose.SetDialect("postgres")
	})
	return setupErr
}

// Up applies all pending migrations.
func Up(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := setup(); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := setup(); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, dir)
}

// Status prints the applied state of every migration through goose's logger.
func Status(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	if err := setup(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, dir)
}
