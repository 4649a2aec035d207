// Package repository defines the persistence-port interfaces the
// domain depends on. Implementations live in internal/persistence;
// this follows the teacher's dependency-inversion layering
// (domain/repository interfaces, infrastructure/persistence impls).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
)

// ErrConflict is returned by SessionRepository.Create when two
// concurrent arrivals race to insert the same fingerprint (spec.md
// §4.3, §5 "unique-index race").
var ErrConflict = errors.New("session: fingerprint already exists")

// SessionRepository is C3's durable backing store.
type SessionRepository interface {
	// Get returns the session for id, or (nil, nil) if it does not
	// exist or has already expired as of now (callers treat both the
	// same way per spec.md §4.3 "read-through").
	Get(ctx context.Context, id string, now time.Time) (*entity.Session, error)

	// Create inserts a brand new session row. On a unique-constraint
	// race, returns ErrConflict so the caller re-reads via Get.
	Create(ctx context.Context, s *entity.Session) error

	// Update persists mutated fields of an existing session (parent_id,
	// message_count, last_accessed, expires_at).
	Update(ctx context.Context, s *entity.Session) error

	// Delete removes a session row, cascading to its request/response
	// rows.
	Delete(ctx context.Context, id string) error

	// SweepExpired deletes every row with expires_at <= now and returns
	// the count removed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// RequestRepository is C8's request-row store.
type RequestRepository interface {
	Create(ctx context.Context, r *entity.RequestRecord) error
	Get(ctx context.Context, id string) (*entity.RequestRecord, error)
	List(ctx context.Context, f RequestFilter) ([]*entity.RequestRecord, error)
}

// RequestFilter narrows RequestRepository.List, per spec.md §4.10.
type RequestFilter struct {
	SessionID string
	Model     string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// ResponseRepository is C8's response-row store.
type ResponseRepository interface {
	Create(ctx context.Context, r *entity.ResponseRecord) error
	Get(ctx context.Context, id string) (*entity.ResponseRecord, error)
	GetByRequestID(ctx context.Context, requestID string) (*entity.ResponseRecord, error)
	List(ctx context.Context, f ResponseFilter) ([]*entity.ResponseRecord, error)
	UsageStats(ctx context.Context, sessionID string) (UsageStats, error)
}

// ResponseFilter narrows ResponseRepository.List.
type ResponseFilter struct {
	SessionID string
	Limit     int
	Offset    int
}

// UsageStats is the aggregated token/count view spec.md §4.10 requires.
type UsageStats struct {
	RequestCount     int64
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens       int64
}

// SessionQueryRepository backs the session-level audit reads used by C10.
type SessionQueryRepository interface {
	List(ctx context.Context, limit, offset int) ([]*entity.Session, error)
	Count(ctx context.Context) (int64, error)
}
