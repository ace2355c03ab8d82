package usecases

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/logger"
	"agent-gate.backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
)

// ReceiptUsecase maintains and serves the per-agent receipt hash chain
type ReceiptUsecase struct {
	receiptRepo repositories.ReceiptRepository
	paymentRepo repositories.PaymentRepository
	mandateRepo repositories.MandateRepository
	intentRepo  repositories.IntentRepository
}

// NewReceiptUsecase creates a new receipt usecase
func NewReceiptUsecase(
	receiptRepo repositories.ReceiptRepository,
	paymentRepo repositories.PaymentRepository,
	mandateRepo repositories.MandateRepository,
	intentRepo repositories.IntentRepository,
) *ReceiptUsecase {
	return &ReceiptUsecase{
		receiptRepo: receiptRepo,
		paymentRepo: paymentRepo,
		mandateRepo: mandateRepo,
		intentRepo:  intentRepo,
	}
}

// receiptBody builds the canonical body hashed into a receipt. The timestamp
// is the payment's settlement time, millisecond precision, UTC.
func receiptBody(payment *entities.Payment, prevHash null.String) map[string]interface{} {
	var prev interface{}
	if prevHash.Valid {
		prev = prevHash.String
	}
	return map[string]interface{}{
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"mandate_id": payment.MandateID.String(),
		"payment_id": payment.ID.String(),
		"prev_hash":  prev,
		"timestamp":  crypto.CanonicalTime(payment.SettledAt.Time),
	}
}

// Append writes the next receipt in the agent's chain. It must run inside
// the settlement transaction; on an index collision with a concurrent
// appender it returns ErrAlreadyExists and the caller retries the whole
// transaction.
func (u *ReceiptUsecase) Append(ctx context.Context, payment *entities.Payment) (*entities.Receipt, error) {
	if !payment.SettledAt.Valid {
		return nil, domainerrors.InternalError(fmt.Errorf("receipt append for unsettled payment %s", payment.ID))
	}

	var prevHash null.String
	var chainIndex int64
	latest, err := u.receiptRepo.GetLatest(ctx, payment.AgentID)
	switch {
	case err == nil:
		prevHash = null.StringFrom(latest.Hash)
		chainIndex = latest.ChainIndex + 1
	case errors.Is(err, domainerrors.ErrNotFound):
		chainIndex = 0
	default:
		return nil, err
	}

	hash, err := crypto.HashCanonical(receiptBody(payment, prevHash))
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	receipt := &entities.Receipt{
		ID:         uuid.New(),
		PaymentID:  payment.ID,
		AgentID:    payment.AgentID,
		PrevHash:   prevHash,
		Hash:       hash,
		ChainIndex: chainIndex,
		CreatedAt:  payment.SettledAt.Time,
	}
	if err := u.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Verify walks the agent's chain in ascending order, recomputing every hash
// from the joined payment data. Tampering with either a receipt or its
// underlying payment surfaces as the first broken index.
func (u *ReceiptUsecase) Verify(ctx context.Context, agentID uuid.UUID) (*entities.ChainVerification, error) {
	receipts, err := u.receiptRepo.ListByAgentAsc(ctx, agentID)
	if err != nil {
		return nil, err
	}

	result := &entities.ChainVerification{Valid: true}
	var prevHash null.String
	for i, r := range receipts {
		result.Checked++
		if broken := u.checkLink(ctx, r, int64(i), prevHash); broken {
			result.Valid = false
			result.BrokenAt = r.ChainIndex
			logger.Warn(ctx, "receipt chain broken",
				zap.String("agent_id", agentID.String()),
				zap.Int64("chain_index", r.ChainIndex))
			return result, nil
		}
		prevHash = null.StringFrom(r.Hash)
	}
	return result, nil
}

func (u *ReceiptUsecase) checkLink(ctx context.Context, r *entities.Receipt, position int64, prevHash null.String) bool {
	if r.ChainIndex != position {
		return true
	}
	if r.PrevHash.Valid != prevHash.Valid || r.PrevHash.String != prevHash.String {
		return true
	}

	payment, err := u.paymentRepo.GetByID(ctx, r.PaymentID)
	if err != nil {
		return true
	}
	expected, err := crypto.HashCanonical(receiptBody(payment, prevHash))
	if err != nil {
		return true
	}
	return expected != r.Hash
}

// GetRow returns the joined receipt view for the owning agent.
func (u *ReceiptUsecase) GetRow(ctx context.Context, agentID, receiptID uuid.UUID) (*entities.ReceiptRow, error) {
	receipt, err := u.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodeReceiptNotFound, "receipt not found")
		}
		return nil, err
	}
	if receipt.AgentID != agentID {
		return nil, domainerrors.Forbidden("receipt belongs to another agent")
	}

	payment, err := u.paymentRepo.GetByID(ctx, receipt.PaymentID)
	if err != nil {
		return nil, err
	}
	mandate, err := u.mandateRepo.GetByID(ctx, payment.MandateID)
	if err != nil {
		return nil, err
	}
	intent, err := u.intentRepo.GetByID(ctx, mandate.IntentID)
	if err != nil {
		return nil, err
	}

	return &entities.ReceiptRow{
		Receipt: receipt,
		Payment: payment,
		Mandate: mandate,
		Intent:  intent,
	}, nil
}

// List pages the agent's receipts in descending chain order.
func (u *ReceiptUsecase) List(ctx context.Context, agentID uuid.UUID, params utils.PaginationParams) ([]*entities.Receipt, int64, error) {
	return u.receiptRepo.ListByAgentDesc(ctx, agentID, params.Limit, params.Offset)
}

// RowCSV renders one joined receipt row as CSV with a header line.
func RowCSV(row *entities.ReceiptRow) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"receipt_id", "chain_index", "prev_hash", "hash",
		"payment_id", "mandate_id", "intent_id", "vendor",
		"amount", "currency", "status", "settled_at",
	}); err != nil {
		return "", err
	}

	settledAt := ""
	if row.Payment.SettledAt.Valid {
		settledAt = crypto.CanonicalTime(row.Payment.SettledAt.Time)
	}
	if err := w.Write([]string{
		row.Receipt.ID.String(),
		strconv.FormatInt(row.Receipt.ChainIndex, 10),
		row.Receipt.PrevHash.String,
		row.Receipt.Hash,
		row.Payment.ID.String(),
		row.Mandate.ID.String(),
		row.Intent.ID.String(),
		row.Intent.Vendor,
		strconv.FormatInt(row.Payment.Amount, 10),
		row.Payment.Currency,
		string(row.Payment.Status),
		settledAt,
	}); err != nil {
		return "", err
	}
	w.Flush()
	return buf.String(), w.Error()
}
