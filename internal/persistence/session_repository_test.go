package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/persistence"
)

func TestGormSessionRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	session := &entity.Session{
		ID:               "fp-1",
		UpstreamChatID:   "chat-1",
		FirstUserMessage: "hello",
		CreatedAt:        now,
		LastAccessed:     now,
		ExpiresAt:        now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, "fp-1", now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "chat-1", got.UpstreamChatID)
	assert.Nil(t, got.ParentID)
}

func TestGormSessionRepository_Get_MissingReturnsNilNil(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)

	got, err := repo.Get(context.Background(), "does-not-exist", time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormSessionRepository_Get_ExpiredTreatedAsMissing(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	session := &entity.Session{ID: "fp-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, "fp-1", now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormSessionRepository_Create_DuplicateIDReturnsErrConflict(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	session := &entity.Session{ID: "fp-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))

	dup := &entity.Session{ID: "fp-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestGormSessionRepository_Update(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	session := &entity.Session{ID: "fp-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))

	session.AdvanceParent("parent-1", now, time.Hour)
	require.NoError(t, repo.Update(ctx, session))

	got, err := repo.Get(ctx, "fp-1", now)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "parent-1", *got.ParentID)
	assert.Equal(t, 1, got.MessageCount)
}

func TestGormSessionRepository_Delete(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	session := &entity.Session{ID: "fp-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))
	require.NoError(t, repo.Delete(ctx, "fp-1"))

	got, err := repo.Get(ctx, "fp-1", now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormSessionRepository_SweepExpired(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &entity.Session{ID: "expired", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Create(ctx, &entity.Session{ID: "live", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))

	n, err := repo.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, "live", now)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestGormSessionQueryRepository_ListAndCount(t *testing.T) {
	db := openTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	queryRepo := persistence.NewGormSessionQueryRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &entity.Session{ID: "a", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &entity.Session{ID: "b", CreatedAt: now, LastAccessed: now.Add(time.Minute), ExpiresAt: now.Add(time.Hour)}))

	count, err := queryRepo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rows, err := queryRepo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID, "ordered by last_accessed desc")
}
