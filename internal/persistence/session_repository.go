package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/persistence/models"
)

// GormSessionRepository is the gorm-backed SessionRepository.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository constructs a GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Get(ctx context.Context, id string, now time.Time) (*entity.Session, error) {
	var m models.SessionModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := toSessionEntity(&m)
	if s.IsExpired(now) {
		return nil, nil
	}
	return s, nil
}

func (r *GormSessionRepository) Create(ctx context.Context, s *entity.Session) error {
	m := toSessionModel(s)
	err := r.db.WithContext(ctx).Create(m).Error
	if err != nil && isUniqueConstraintErr(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *GormSessionRepository) Update(ctx context.Context, s *entity.Session) error {
	m := toSessionModel(s)
	return r.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"parent_id":     m.ParentID,
			"message_count": m.MessageCount,
			"last_accessed": m.LastAccessed,
			"expires_at":    m.ExpiresAt,
		}).Error
}

func (r *GormSessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.SessionModel{}, "id = ?", id).Error
}

func (r *GormSessionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.SessionModel{})
	return result.RowsAffected, result.Error
}

// GormSessionQueryRepository backs C10's session listing/count reads.
type GormSessionQueryRepository struct {
	db *gorm.DB
}

// NewGormSessionQueryRepository constructs a GormSessionQueryRepository.
func NewGormSessionQueryRepository(db *gorm.DB) repository.SessionQueryRepository {
	return &GormSessionQueryRepository{db: db}
}

func (r *GormSessionQueryRepository) List(ctx context.Context, limit, offset int) ([]*entity.Session, error) {
	var rows []models.SessionModel
	err := r.db.WithContext(ctx).Order("last_accessed desc").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Session, 0, len(rows))
	for i := range rows {
		out = append(out, toSessionEntity(&rows[i]))
	}
	return out, nil
}

func (r *GormSessionQueryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SessionModel{}).Count(&count).Error
	return count, err
}

func toSessionModel(s *entity.Session) *models.SessionModel {
	return &models.SessionModel{
		ID:               s.ID,
		UpstreamChatID:   s.UpstreamChatID,
		ParentID:         s.ParentID,
		FirstUserMessage: s.FirstUserMessage,
		MessageCount:     s.MessageCount,
		CreatedAt:        s.CreatedAt,
		LastAccessed:     s.LastAccessed,
		ExpiresAt:        s.ExpiresAt,
	}
}

func toSessionEntity(m *models.SessionModel) *entity.Session {
	return &entity.Session{
		ID:               m.ID,
		UpstreamChatID:   m.UpstreamChatID,
		ParentID:         m.ParentID,
		FirstUserMessage: m.FirstUserMessage,
		MessageCount:     m.MessageCount,
		CreatedAt:        m.CreatedAt,
		LastAccessed:     m.LastAccessed,
		ExpiresAt:        m.ExpiresAt,
	}
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
