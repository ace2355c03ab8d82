package repositories

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntentRepository implements purchase intent data operations
type IntentRepository struct {
	db *gorm.DB
}

// NewIntentRepository creates a new intent repository
func NewIntentRepository(db *gorm.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// Create creates a new purchase intent
func (r *IntentRepository) Create(ctx context.Context, intent *entities.PurchaseIntent) error {
	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	m := &models.PurchaseIntent{
		ID:          intent.ID,
		AgentID:     intent.AgentID,
		Vendor:      intent.Vendor,
		Amount:      intent.Amount,
		Currency:    intent.Currency,
		Description: intent.Description,
		Metadata:    intent.Metadata,
		Status:      string(intent.Status),
		CreatedAt:   intent.CreatedAt,
		UpdatedAt:   intent.UpdatedAt,
	}
	if m.Metadata == "" {
		m.Metadata = "{}"
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	intent.ID = m.ID
	return nil
}

// GetByID gets an intent by ID
func (r *IntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.PurchaseIntent, error) {
	var m models.PurchaseIntent
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// UpdateStatus moves an intent to a new lifecycle status.
func (r *IntentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.IntentStatus) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.PurchaseIntent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *IntentRepository) toEntity(m *models.PurchaseIntent) *entities.PurchaseIntent {
	return &entities.PurchaseIntent{
		ID:          m.ID,
		AgentID:     m.AgentID,
		Vendor:      m.Vendor,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Description: m.Description,
		Metadata:    m.Metadata,
		Status:      entities.IntentStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
