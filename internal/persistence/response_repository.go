package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/persistence/models"
)

// GormResponseRepository is the gorm-backed ResponseRepository.
type GormResponseRepository struct {
	db *gorm.DB
}

// NewGormResponseRepository constructs a GormResponseRepository.
func NewGormResponseRepository(db *gorm.DB) repository.ResponseRepository {
	return &GormResponseRepository{db: db}
}

func (r *GormResponseRepository) Create(ctx context.Context, rec *entity.ResponseRecord) error {
	return r.db.WithContext(ctx).Create(&models.ResponseModel{
		ID:               rec.ID,
		RequestID:        rec.RequestID,
		SessionID:        rec.SessionID,
		Timestamp:        rec.Timestamp,
		UpstreamBodyJSON: rec.UpstreamBodyJSON,
		OutboundBodyJSON: rec.OutboundBodyJSON,
		ParentID:         rec.ParentID,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		TotalTokens:      rec.TotalTokens,
		FinishReason:     rec.FinishReason,
		ErrorMessage:     rec.ErrorMessage,
		DurationMS:       rec.DurationMS,
	}).Error
}

func (r *GormResponseRepository) Get(ctx context.Context, id string) (*entity.ResponseRecord, error) {
	var m models.ResponseModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toResponseEntity(&m), nil
}

func (r *GormResponseRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.ResponseRecord, error) {
	var m models.ResponseModel
	err := r.db.WithContext(ctx).First(&m, "request_id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toResponseEntity(&m), nil
}

func (r *GormResponseRepository) List(ctx context.Context, f repository.ResponseFilter) ([]*entity.ResponseRecord, error) {
	q := r.db.WithContext(ctx).Model(&models.ResponseModel{})
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []models.ResponseModel
	err := q.Order("timestamp desc").Limit(limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entity.ResponseRecord, 0, len(rows))
	for i := range rows {
		out = append(out, toResponseEntity(&rows[i]))
	}
	return out, nil
}

// UsageStats aggregates token/request counters for sessionID, or across
// every session when sessionID is empty (the global "/v1/responses/stats"
// rollup).
func (r *GormResponseRepository) UsageStats(ctx context.Context, sessionID string) (repository.UsageStats, error) {
	var stats repository.UsageStats
	q := r.db.WithContext(ctx).Model(&models.ResponseModel{})
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	err := q.Select("COUNT(*) as request_count, COALESCE(SUM(prompt_tokens),0) as prompt_tokens, COALESCE(SUM(completion_tokens),0) as completion_tokens, COALESCE(SUM(total_tokens),0) as total_tokens").
		Scan(&stats).Error
	return stats, err
}

func toResponseEntity(m *models.ResponseModel) *entity.ResponseRecord {
	return &entity.ResponseRecord{
		ID:               m.ID,
		RequestID:        m.RequestID,
		SessionID:        m.SessionID,
		Timestamp:        m.Timestamp,
		UpstreamBodyJSON: m.UpstreamBodyJSON,
		OutboundBodyJSON: m.OutboundBodyJSON,
		ParentID:         m.ParentID,
		PromptTokens:     m.PromptTokens,
		CompletionTokens: m.CompletionTokens,
		TotalTokens:      m.TotalTokens,
		FinishReason:     m.FinishReason,
		ErrorMessage:     m.ErrorMessage,
		DurationMS:       m.DurationMS,
	}
}
