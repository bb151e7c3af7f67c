package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// MemoryRepository keeps users in a map guarded by a RWMutex. Lookups share
// the read lock; Create holds the write lock across check and insert.
type MemoryRepository struct {
	mu     sync.RWMutex
	byName map[string]models.User
	lastID int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byName: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, userName, passwordHash string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[userName]; ok {
		return nil, common.ErrorConflict
	}

	r.lastID++
	user := models.User{ID: r.lastID, UserName: userName, PasswordHash: passwordHash}
	r.byName[userName] = user

	return &user, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	user, ok := r.byName[userName]
	r.mu.RUnlock()

	if !ok {
		return nil, common.ErrorNotFound
	}
	return &user, nil
}

func (r *MemoryRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName = make(map[string]models.User)
	r.lastID = 0
	return nil
}
