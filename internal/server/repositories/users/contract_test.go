package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises the behaviour every Repository must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("create assigns increasing ids", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Create(ctx, "alice", "hash-a")
		require.NoError(t, err)
		b, err := repo.Create(ctx, "bob", "hash-b")
		require.NoError(t, err)

		assert.Positive(t, a.ID)
		assert.Greater(t, b.ID, a.ID)
		assert.Equal(t, "alice", a.UserName)
		assert.Equal(t, "hash-a", a.PasswordHash)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, "alice", "h1")
		require.NoError(t, err)

		_, err = repo.Create(ctx, "alice", "h2")
		require.ErrorIs(t, err, common.ErrorConflict)

		got, err := repo.GetUserByLogin(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "h1", got.PasswordHash, "losing create must not overwrite")
	})

	t.Run("lookup", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, "carol", "hash")
		require.NoError(t, err)

		got, err := repo.GetUserByLogin(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, created, got)

		_, err = repo.GetUserByLogin(ctx, "ghost")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("reset clears records and ids", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Create(ctx, "a", "h")
		require.NoError(t, err)
		_, err = repo.Create(ctx, "b", "h")
		require.NoError(t, err)

		require.NoError(t, repo.Reset(ctx))

		_, err = repo.GetUserByLogin(ctx, "a")
		require.ErrorIs(t, err, common.ErrorNotFound)

		again, err := repo.Create(ctx, "a", "h")
		require.NoError(t, err)
		assert.Equal(t, int64(1), again.ID)
	})

	t.Run("concurrent creates of one username", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const callers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		start := make(chan struct{})

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, err := repo.Create(ctx, "racer", fmt.Sprintf("hash-%d", i))

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, common.ErrorConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, callers-1, conflicts)
	})
}
