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

func TestGormRequestRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	sessions := persistence.NewGormSessionRepository(db)
	requests := persistence.NewGormRequestRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))

	rec := &entity.RequestRecord{
		ID:              "req-1",
		SessionID:       "sess-1",
		Timestamp:       now,
		Model:           "qwen-max",
		Stream:          true,
		InboundBodyJSON: `{"model":"qwen-max"}`,
	}
	require.NoError(t, requests.Create(ctx, rec))

	got, err := requests.Get(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.True(t, got.Stream)
	assert.Equal(t, `{"model":"qwen-max"}`, got.InboundBodyJSON)
}

func TestGormRequestRepository_Get_Missing(t *testing.T) {
	db := openTestDB(t)
	requests := persistence.NewGormRequestRepository(db)

	got, err := requests.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormRequestRepository_List_FiltersBySessionAndModel(t *testing.T) {
	db := openTestDB(t)
	sessions := persistence.NewGormSessionRepository(db)
	requests := persistence.NewGormRequestRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-2", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "r1", SessionID: "sess-1", Model: "qwen-max", Timestamp: now}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "r2", SessionID: "sess-1", Model: "qwen-plus", Timestamp: now.Add(time.Second)}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "r3", SessionID: "sess-2", Model: "qwen-max", Timestamp: now.Add(2 * time.Second)}))

	rows, err := requests.List(ctx, repository.RequestFilter{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = requests.List(ctx, repository.RequestFilter{SessionID: "sess-1", Model: "qwen-plus"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r2", rows[0].ID)
}

func TestGormRequestRepository_List_DefaultsLimitTo50(t *testing.T) {
	db := openTestDB(t)
	sessions := persistence.NewGormSessionRepository(db)
	requests := persistence.NewGormRequestRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	for i := 0; i < 3; i++ {
		require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: string(rune('a' + i)), SessionID: "sess-1", Timestamp: now.Add(time.Duration(i) * time.Second)}))
	}

	rows, err := requests.List(ctx, repository.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
