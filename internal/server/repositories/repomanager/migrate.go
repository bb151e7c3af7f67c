package repomanager

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// migrateUp is a seam for testing; it applies the embedded migrations in
// dir with a goose provider.
var migrateUp = func(ctx context.Context, dialect database.Dialect, db *sql.DB, dir string) error {
	sub, err := fs.Sub(migrations.Migrations, dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return err
	}

	_, err = provider.Up(ctx)
	return err
}
