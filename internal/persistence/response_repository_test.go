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

func TestGormResponseRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	sessions := persistence.NewGormSessionRepository(db)
	requests := persistence.NewGormRequestRepository(db)
	responses := persistence.NewGormResponseRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "req-1", SessionID: "sess-1", Timestamp: now}))

	rec := &entity.ResponseRecord{
		ID:               "resp-1",
		RequestID:        "req-1",
		SessionID:        "sess-1",
		Timestamp:        now,
		ParentID:         "parent-1",
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
		FinishReason:     "stop",
	}
	require.NoError(t, responses.Create(ctx, rec))

	got, err := responses.Get(ctx, "resp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "parent-1", got.ParentID)
	assert.Equal(t, 30, got.TotalTokens)

	byReq, err := responses.GetByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, byReq)
	assert.Equal(t, "resp-1", byReq.ID)
}

func TestGormResponseRepository_GetByRequestID_Missing(t *testing.T) {
	db := openTestDB(t)
	responses := persistence.NewGormResponseRepository(db)

	got, err := responses.GetByRequestID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormResponseRepository_List_FiltersBySession(t *testing.T) {
	db := openTestDB(t)
	sessions := persistence.NewGormSessionRepository(db)
	requests := persistence.NewGormRequestRepository(db)
	responses := persistence.NewGormResponseRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-2", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "req-1", SessionID: "sess-1", Timestamp: now}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "req-2", SessionID: "sess-2", Timestamp: now}))

	require.NoError(t, responses.Create(ctx, &entity.ResponseRecord{ID: "r1", RequestID: "req-1", SessionID: "sess-1", Timestamp: now}))
	require.NoError(t, responses.Create(ctx, &entity.ResponseRecord{ID: "r2", RequestID: "req-2", SessionID: "sess-2", Timestamp: now}))

	rows, err := responses.List(ctx, repository.ResponseFilter{SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0].ID)
}

func TestGormResponseRepository_UsageStats_AggregatesTokens(t *testing.T) {
	db := openTestDB(t)
	sessions := persistence.NewGormSessionRepository(db)
	requests := persistence.NewGormRequestRepository(db)
	responses := persistence.NewGormResponseRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, &entity.Session{ID: "sess-1", CreatedAt: now, LastAccessed: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "req-1", SessionID: "sess-1", Timestamp: now}))
	require.NoError(t, requests.Create(ctx, &entity.RequestRecord{ID: "req-2", SessionID: "sess-1", Timestamp: now}))

	require.NoError(t, responses.Create(ctx, &entity.ResponseRecord{ID: "r1", RequestID: "req-1", SessionID: "sess-1", Timestamp: now, PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}))
	require.NoError(t, responses.Create(ctx, &entity.ResponseRecord{ID: "r2", RequestID: "req-2", SessionID: "sess-1", Timestamp: now, PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28}))

	stats, err := responses.UsageStats(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.RequestCount)
	assert.Equal(t, int64(30), stats.PromptTokens)
	assert.Equal(t, int64(13), stats.CompletionTokens)
	assert.Equal(t, int64(43), stats.TotalTokens)
}

func TestGormResponseRepository_UsageStats_NoRowsReturnsZeroes(t *testing.T) {
	db := openTestDB(t)
	responses := persistence.NewGormResponseRepository(db)

	stats, err := responses.UsageStats(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.RequestCount)
	assert.Equal(t, int64(0), stats.TotalTokens)
}
