package repositories

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
)

// PaymentRepository implements payment data operations
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *entities.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	m := &models.Payment{
		ID:         payment.ID,
		MandateID:  payment.MandateID,
		AgentID:    payment.AgentID,
		Rail:       string(payment.Rail),
		RailReason: payment.RailReason,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Status:     string(payment.Status),
		CreatedAt:  payment.CreatedAt,
		UpdatedAt:  payment.UpdatedAt,
	}
	if payment.ProviderRef.Valid {
		ref := payment.ProviderRef.String
		m.ProviderRef = &ref
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	payment.ID = m.ID
	return nil
}

// GetByID gets a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error) {
	var m models.Payment
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByProviderRef resolves the payment addressed by a provider notification.
func (r *PaymentRepository) GetByProviderRef(ctx context.Context, rail entities.Rail, providerRef string) (*entities.Payment, error) {
	var m models.Payment
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("rail = ? AND provider_ref = ?", string(rail), providerRef).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByMandate returns all payments for a mandate, newest first.
func (r *PaymentRepository) ListByMandate(ctx context.Context, mandateID uuid.UUID) ([]*entities.Payment, error) {
	var ms []models.Payment
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("mandate_id = ?", mandateID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	payments := make([]*entities.Payment, 0, len(ms))
	for i := range ms {
		payments = append(payments, r.toEntity(&ms[i]))
	}
	return payments, nil
}

// UpdateStatus moves a payment to a new lifecycle status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.PaymentStatus) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Payment{}).
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

// MarkSettled sets SETTLED, the settlement time and the settled-mandate
// marker in one update. The unique index on settled_mandate_id rejects a
// second settlement for the same mandate.
func (r *PaymentRepository) MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error {
	var m models.Payment
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrNotFound
		}
		return err
	}

	mandateID := m.MandateID
	result := db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             string(entities.PaymentStatusSettled),
			"settled_at":         settledAt,
			"settled_mandate_id": mandateID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return domainerrors.ErrAlreadyExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetProviderRef records the external reference returned by the rail.
func (r *PaymentRepository) SetProviderRef(ctx context.Context, id uuid.UUID, providerRef string) error {
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_ref": providerRef,
			"updated_at":   time.Now(),
		}).Error
}

// SumDailySpendByPolicy sums SETTLED, PENDING and PROCESSING payment amounts
// under mandates of the policy created at or after from.
func (r *PaymentRepository) SumDailySpendByPolicy(ctx context.Context, policyID uuid.UUID, from time.Time) (int64, error) {
	var sum int64
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(payments.amount), 0)").
		Joins("JOIN mandates ON mandates.id = payments.mandate_id").
		Where("mandates.policy_id = ?", policyID).
		Where("payments.created_at >= ?", from).
		Where("payments.status IN ?", []string{
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

func (r *PaymentRepository) toEntity(m *models.Payment) *entities.Payment {
	p := &entities.Payment{
		ID:          m.ID,
		MandateID:   m.MandateID,
		AgentID:     m.AgentID,
		Rail:        entities.Rail(m.Rail),
		RailReason:  m.RailReason,
		ProviderRef: null.StringFromPtr(m.ProviderRef),
		Amount:      m.Amount,
		Currency:    m.Currency,
		Status:      entities.PaymentStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.SettledAt != nil {
		p.SettledAt = null.TimeFrom(*m.SettledAt)
	}
	return p
}
