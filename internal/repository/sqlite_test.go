package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/storage"
)

func setupSQLite(t *testing.T) *URLRepository {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := InitSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := CreateSQLiteRepository(db, zap.NewNop())
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLite_InsertFindIncrement(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	link, err := repo.Insert(ctx, "https://example.com/a/very/long/path", "C1abcd")
	require.NoError(t, err)
	assert.Equal(t, "C1abcd", link.Code)

	_, err = repo.Insert(ctx, "https://example.com/other", "C1abcd")
	assert.ErrorIs(t, err, storage.ErrConflict)

	found, err := repo.FindByCode(ctx, "C1abcd")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a/very/long/path", found.Original)
	assert.WithinDuration(t, link.CreatedAt, found.CreatedAt, time.Second)

	found, err = repo.FindByOriginal(ctx, "https://example.com/a/very/long/path")
	require.NoError(t, err)
	assert.Equal(t, "C1abcd", found.Code)

	_, err = repo.FindByCode(ctx, "nope00")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	clicks, err := repo.IncrementClicks(ctx, "C1abcd")
	require.NoError(t, err)
	assert.Equal(t, int64(1), clicks)

	clicks, err = repo.IncrementClicks(ctx, "C1abcd")
	require.NoError(t, err)
	assert.Equal(t, int64(2), clicks)

	_, err = repo.IncrementClicks(ctx, "nope00")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_ConcurrentIncrements(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, "https://example.com", "abc123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementClicks(ctx, "abc123")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := repo.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(100), found.Clicks)
}

func TestSQLite_ListAllNewestFirst(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	for _, code := range []string{"aaaaaa", "bbbbbb", "cccccc"} {
		_, err := repo.Insert(ctx, "https://example.com/"+code, code)
		require.NoError(t, err)
	}

	links, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "cccccc", links[0].Code)
	assert.Equal(t, "aaaaaa", links[2].Code)
}

func TestSQLite_Admins(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()

	a := storage.Admin{ID: "id-1", Username: "admin", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateAdmin(ctx, a))
	assert.ErrorIs(t, repo.CreateAdmin(ctx, a), storage.ErrConflict)

	found, err := repo.FindAdmin(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", found.PasswordHash)

	_, err = repo.FindAdmin(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, repo.PingContext(ctx))
}
