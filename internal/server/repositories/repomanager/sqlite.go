package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct {
	db    *sql.DB
	users users.Repository
}

// NewSQLiteRepositoryManager opens the database file at path (":memory:" for
// a throwaway database). A single connection is used: SQLite allows one
// writer at a time and every in-memory connection would be a separate database.
func NewSQLiteRepositoryManager(path string) (*SQLiteRepositoryManager, error) {
	if path == "" {
		return nil, fmt.Errorf("db open error: empty sqlite path")
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &SQLiteRepositoryManager{db: db, users: users.NewSQLiteRepository(db)}, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (m *SQLiteRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := migrateUp(ctx, database.DialectSQLite3, m.db, migrations.SQLiteDir); err != nil {
		return fmt.Errorf("sqlite migrations: %w", err)
	}
	return nil
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}
