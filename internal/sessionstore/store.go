// Package sessionstore implements C3: the conversation-to-Qwen-chat
// session directory, keyed by fingerprint, with the parent_id cursor
// and expiry bookkeeping. It is a thin concurrency/business-rule layer
// over the SessionRepository port; the teacher's equivalent is
// internal/application/usecase/session_manager.go.
package sessionstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/metrics"
)

// Factory creates a brand-new upstream chat for a not-yet-seen
// fingerprint. It is supplied by the orchestrator since only C2 knows
// how to call CreateChat.
type Factory func(ctx context.Context, firstUserMessage string) (upstreamChatID string, err error)

// Store is C3's session directory.
type Store struct {
	repo    repository.SessionRepository
	timeout time.Duration
	logger  *zap.Logger
}

// New constructs a Store.
func New(repo repository.SessionRepository, timeout time.Duration, logger *zap.Logger) *Store {
	return &Store{repo: repo, timeout: timeout, logger: logger.With(zap.String("component", "session-store"))}
}

// GetOrCreate resolves the session for fingerprint id, creating one via
// factory on first sight. On a unique-constraint race (two concurrent
// first turns of the same conversation), it re-reads the winner's row
// rather than erroring, per spec.md §4.3's race note.
func (s *Store) GetOrCreate(ctx context.Context, id, firstUserMessage string, factory Factory) (*entity.Session, error) {
	now := time.Now()

	existing, err := s.repo.Get(ctx, id, now)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "read session", err)
	}
	if existing != nil {
		return existing, nil
	}

	upstreamChatID, err := factory(ctx, firstUserMessage)
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		ID:               id,
		UpstreamChatID:   upstreamChatID,
		ParentID:         nil,
		FirstUserMessage: firstUserMessage,
		MessageCount:     0,
		CreatedAt:        now,
		LastAccessed:     now,
		ExpiresAt:        now.Add(s.timeout),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		if err == repository.ErrConflict {
			winner, gerr := s.repo.Get(ctx, id, now)
			if gerr != nil {
				return nil, apperrors.Wrap(apperrors.KindInternal, "read session after conflict", gerr)
			}
			if winner != nil {
				return winner, nil
			}
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "create session", err)
	}

	return session, nil
}

// Get reads a single session by id without creating or touching it —
// used by the read-only audit surface (C10).
func (s *Store) Get(ctx context.Context, id string) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, id, time.Now())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "read session", err)
	}
	return session, nil
}

// AdvanceParent records a fresh parent_id after an upstream reply and
// persists the updated row.
func (s *Store) AdvanceParent(ctx context.Context, session *entity.Session, parentID string) error {
	session.AdvanceParent(parentID, time.Now(), s.timeout)
	if err := s.repo.Update(ctx, session); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "update session", err)
	}
	return nil
}

// Touch refreshes a session's expiry without advancing its parent
// chain.
func (s *Store) Touch(ctx context.Context, session *entity.Session) error {
	session.Touch(time.Now(), s.timeout)
	if err := s.repo.Update(ctx, session); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "touch session", err)
	}
	return nil
}

// Delete removes a session outright (administrative operation, C10).
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "delete session", err)
	}
	return nil
}

// Sweep deletes every expired session and returns how many were
// removed. Intended to run on a cron schedule (spec.md §4.3 "sweep
// loop").
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.SweepExpired(ctx, time.Now())
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindInternal, "sweep expired sessions", err)
	}
	if n > 0 {
		s.logger.Info("swept expired sessions", zap.Int64("count", n))
		metrics.SessionsSweptTotal.Add(float64(n))
	}
	return n, nil
}
