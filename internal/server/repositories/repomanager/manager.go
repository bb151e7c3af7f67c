// Package repomanager selects and owns the user store backend. The backend
// is chosen from the store DSN scheme:
//
//	memory://            in-process map (default, lost on restart)
//	postgres://...       PostgreSQL through pgx, goose migrations
//	sqlite://path.db3    SQLite through modernc.org/sqlite, goose migrations
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories and manages the underlying storage.
type RepositoryManager interface {
	// RunMigrations brings the schema up to date. No-op for memory.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Close() error
}

// NewRepositoryManager builds the manager matching dsn.
func NewRepositoryManager(dsn string) (RepositoryManager, error) {
	switch {
	case dsn == "" || strings.HasPrefix(dsn, "memory:"):
		return NewInMemoryRepositoryManager(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresRepositoryManager(dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
		return NewSQLiteRepositoryManager(path)
	default:
		return nil, fmt.Errorf("unsupported store dsn scheme: %q", schemeOf(dsn))
	}
}

func schemeOf(dsn string) string {
	scheme, _, found := strings.Cut(dsn, ":")
	if !found {
		return dsn
	}
	return scheme
}

// InMemoryRepositoryManager serves a single process-local user map.
type InMemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Users() users.Repository                 { return m.users }
func (m *InMemoryRepositoryManager) Close() error                            { return nil }
