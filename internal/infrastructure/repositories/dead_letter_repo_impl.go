package repositories

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeadLetterRepository implements webhook dead letter storage
type DeadLetterRepository struct {
	db *gorm.DB
}

// NewDeadLetterRepository creates a new dead letter repository
func NewDeadLetterRepository(db *gorm.DB) *DeadLetterRepository {
	return &DeadLetterRepository{db: db}
}

// Create records a failed webhook event
func (r *DeadLetterRepository) Create(ctx context.Context, letter *entities.WebhookDeadLetter) error {
	if letter.ID == uuid.Nil {
		letter.ID = uuid.New()
	}
	m := &models.WebhookDeadLetter{
		ID:        letter.ID,
		Rail:      string(letter.Rail),
		EventID:   letter.EventID,
		EventType: letter.EventType,
		Payload:   letter.Payload,
		Error:     letter.Error,
		CreatedAt: letter.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	letter.ID = m.ID
	return nil
}

// List pages dead letters newest first.
func (r *DeadLetterRepository) List(ctx context.Context, limit, offset int) ([]*entities.WebhookDeadLetter, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.WithContext(ctx).Model(&models.WebhookDeadLetter{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.WebhookDeadLetter
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}

	letters := make([]*entities.WebhookDeadLetter, 0, len(ms))
	for i := range ms {
		m := ms[i]
		letters = append(letters, &entities.WebhookDeadLetter{
			ID:        m.ID,
			Rail:      entities.Rail(m.Rail),
			EventID:   m.EventID,
			EventType: m.EventType,
			Payload:   m.Payload,
			Error:     m.Error,
			CreatedAt: m.CreatedAt,
		})
	}
	return letters, total, nil
}
