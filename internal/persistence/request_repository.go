package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/persistence/models"
)

// GormRequestRepository is the gorm-backed RequestRepository.
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository constructs a GormRequestRepository.
func NewGormRequestRepository(db *gorm.DB) repository.RequestRepository {
	return &GormRequestRepository{db: db}
}

func (r *GormRequestRepository) Create(ctx context.Context, rec *entity.RequestRecord) error {
	return r.db.WithContext(ctx).Create(&models.RequestModel{
		ID:               rec.ID,
		SessionID:        rec.SessionID,
		Timestamp:        rec.Timestamp,
		Model:            rec.Model,
		Stream:           rec.Stream,
		InboundBodyJSON:  rec.InboundBodyJSON,
		UpstreamBodyJSON: rec.UpstreamBodyJSON,
	}).Error
}

func (r *GormRequestRepository) Get(ctx context.Context, id string) (*entity.RequestRecord, error) {
	var m models.RequestModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toRequestEntity(&m), nil
}

func (r *GormRequestRepository) List(ctx context.Context, f repository.RequestFilter) ([]*entity.RequestRecord, error) {
	q := r.db.WithContext(ctx).Model(&models.RequestModel{})
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.Model != "" {
		q = q.Where("model = ?", f.Model)
	}
	if f.StartDate != nil {
		q = q.Where("timestamp >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("timestamp <= ?", *f.EndDate)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []models.RequestModel
	err := q.Order("timestamp desc").Limit(limit).Offset(f.Offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*entity.RequestRecord, 0, len(rows))
	for i := range rows {
		out = append(out, toRequestEntity(&rows[i]))
	}
	return out, nil
}

func toRequestEntity(m *models.RequestModel) *entity.RequestRecord {
	return &entity.RequestRecord{
		ID:               m.ID,
		SessionID:        m.SessionID,
		Timestamp:        m.Timestamp,
		Model:            m.Model,
		Stream:           m.Stream,
		InboundBodyJSON:  m.InboundBodyJSON,
		UpstreamBodyJSON: m.UpstreamBodyJSON,
	}
}
