// Package users contains the user store: an interface plus in-memory,
// PostgreSQL and SQLite implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository persists user records.
//
// Create must check for an existing username and insert as one atomic step:
// of two concurrent creates for the same username exactly one succeeds and
// the other gets common.ErrorConflict. GetUserByLogin returns
// common.ErrorNotFound on a miss. Reset clears every record and restarts id
// assignment; it exists for test harnesses only.
type Repository interface {
	Create(ctx context.Context, userName, passwordHash string) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	Reset(ctx context.Context) error
}
