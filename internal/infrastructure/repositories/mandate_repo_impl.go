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

// MandateRepository implements mandate data operations
type MandateRepository struct {
	db *gorm.DB
}

// NewMandateRepository creates a new mandate repository
func NewMandateRepository(db *gorm.DB) *MandateRepository {
	return &MandateRepository{db: db}
}

// Create inserts a new mandate. The unique index on intent_id enforces
// at-most-one mandate per intent.
func (r *MandateRepository) Create(ctx context.Context, mandate *entities.Mandate) error {
	if mandate.ID == uuid.Nil {
		mandate.ID = uuid.New()
	}
	m := &models.Mandate{
		ID:        mandate.ID,
		IntentID:  mandate.IntentID,
		AgentID:   mandate.AgentID,
		PolicyID:  mandate.PolicyID,
		Vendor:    mandate.Vendor,
		Amount:    mandate.Amount,
		Currency:  mandate.Currency,
		Signature: mandate.Signature,
		Hash:      mandate.Hash,
		PublicKey: mandate.PublicKey,
		Status:    string(mandate.Status),
		IssuedAt:  mandate.IssuedAt,
		ExpiresAt: mandate.ExpiresAt,
		CreatedAt: mandate.CreatedAt,
		UpdatedAt: mandate.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	mandate.ID = m.ID
	return nil
}

// GetByID gets a mandate by ID
func (r *MandateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Mandate, error) {
	var m models.Mandate
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByIntentID gets the mandate issued for an intent, if any.
func (r *MandateRepository) GetByIntentID(ctx context.Context, intentID uuid.UUID) (*entities.Mandate, error) {
	var m models.Mandate
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("intent_id = ?", intentID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// UpdateStatus moves a mandate to a new lifecycle status.
func (r *MandateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MandateStatus) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Mandate{}).
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

// ExpireDue flips ACTIVE mandates past expiry to EXPIRED.
func (r *MandateRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Mandate{}).
		Where("status = ? AND expires_at <= ?", string(entities.MandateStatusActive), now).
		Updates(map[string]interface{}{
			"status":     string(entities.MandateStatusExpired),
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// SumOutstandingByPolicy sums ACTIVE mandate amounts issued at or after from
// with no payment in a live status. A mandate whose payment is PENDING,
// PROCESSING or SETTLED is already counted on the payment side.
func (r *MandateRepository) SumOutstandingByPolicy(ctx context.Context, policyID uuid.UUID, from time.Time) (int64, error) {
	var sum int64
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).Model(&models.Mandate{}).
		Select("COALESCE(SUM(mandates.amount), 0)").
		Where("mandates.policy_id = ?", policyID).
		Where("mandates.status = ?", string(entities.MandateStatusActive)).
		Where("mandates.issued_at >= ?", from).
		Where("NOT EXISTS (SELECT 1 FROM payments WHERE payments.mandate_id = mandates.id AND payments.status IN ?)", []string{
			string(entities.PaymentStatusSettled),
			string(entities.PaymentStatusPending),
			string(entities.PaymentStatusProcessing),
		}).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *MandateRepository) toEntity(m *models.Mandate) *entities.Mandate {
	return &entities.Mandate{
		ID:        m.ID,
		IntentID:  m.IntentID,
		AgentID:   m.AgentID,
		PolicyID:  m.PolicyID,
		Vendor:    m.Vendor,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Signature: m.Signature,
		Hash:      m.Hash,
		PublicKey: m.PublicKey,
		Status:    entities.MandateStatus(m.Status),
		IssuedAt:  m.IssuedAt,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
