package repositories

import (
	"context"
	"errors"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
)

// ReceiptRepository implements receipt chain data operations
type ReceiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create inserts a receipt. Returns ErrAlreadyExists on a chain-index or
// payment-id collision so callers can retry the append.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *entities.Receipt) error {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	m := &models.Receipt{
		ID:         receipt.ID,
		PaymentID:  receipt.PaymentID,
		AgentID:    receipt.AgentID,
		ChainIndex: receipt.ChainIndex,
		Hash:       receipt.Hash,
		CreatedAt:  receipt.CreatedAt,
	}
	if receipt.PrevHash.Valid {
		prev := receipt.PrevHash.String
		m.PrevHash = &prev
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	receipt.ID = m.ID
	return nil
}

// GetByID gets a receipt by ID
func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Receipt, error) {
	var m models.Receipt
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByPaymentID gets the receipt attesting a payment, if any.
func (r *ReceiptRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entities.Receipt, error) {
	var m models.Receipt
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetLatest returns the chain head for an agent.
func (r *ReceiptRepository) GetLatest(ctx context.Context, agentID uuid.UUID) (*entities.Receipt, error) {
	var m models.Receipt
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("chain_index DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByAgentAsc streams the full chain in ascending chain_index order.
func (r *ReceiptRepository) ListByAgentAsc(ctx context.Context, agentID uuid.UUID) ([]*entities.Receipt, error) {
	var ms []models.Receipt
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("chain_index ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	receipts := make([]*entities.Receipt, 0, len(ms))
	for i := range ms {
		receipts = append(receipts, r.toEntity(&ms[i]))
	}
	return receipts, nil
}

// ListByAgentDesc pages receipts newest-link first.
func (r *ReceiptRepository) ListByAgentDesc(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*entities.Receipt, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.WithContext(ctx).Model(&models.Receipt{}).
		Where("agent_id = ?", agentID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Receipt
	err := db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("chain_index DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}

	receipts := make([]*entities.Receipt, 0, len(ms))
	for i := range ms {
		receipts = append(receipts, r.toEntity(&ms[i]))
	}
	return receipts, total, nil
}

func (r *ReceiptRepository) toEntity(m *models.Receipt) *entities.Receipt {
	return &entities.Receipt{
		ID:         m.ID,
		PaymentID:  m.PaymentID,
		AgentID:    m.AgentID,
		PrevHash:   null.StringFromPtr(m.PrevHash),
		Hash:       m.Hash,
		ChainIndex: m.ChainIndex,
		CreatedAt:  m.CreatedAt,
	}
}
