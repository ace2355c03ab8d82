package usecases

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// settleRetries bounds optimistic retries of the settlement transaction
// when a concurrent appender wins the receipt chain index.
const settleRetries = 3

// SettlementUsecase drives a payment to its terminal state. It is shared by
// the synchronous execute path and the webhook ingestor.
type SettlementUsecase struct {
	paymentRepo repositories.PaymentRepository
	mandateRepo repositories.MandateRepository
	intentRepo  repositories.IntentRepository
	receipts    *ReceiptUsecase
	uow         repositories.UnitOfWork
}

// NewSettlementUsecase creates a new settlement usecase
func NewSettlementUsecase(
	paymentRepo repositories.PaymentRepository,
	mandateRepo repositories.MandateRepository,
	intentRepo repositories.IntentRepository,
	receipts *ReceiptUsecase,
	uow repositories.UnitOfWork,
) *SettlementUsecase {
	return &SettlementUsecase{
		paymentRepo: paymentRepo,
		mandateRepo: mandateRepo,
		intentRepo:  intentRepo,
		receipts:    receipts,
		uow:         uow,
	}
}

// Settle moves a payment to SETTLED and, in the same transaction, exhausts
// the mandate, executes the intent and appends the receipt. A chain-index
// collision rolls the whole transaction back and retries it. Settling an
// already terminal payment is a no-op.
func (s *SettlementUsecase) Settle(ctx context.Context, paymentID uuid.UUID, settledAt time.Time) error {
	var lastErr error
	for attempt := 0; attempt < settleRetries; attempt++ {
		err := s.uow.Do(ctx, func(txCtx context.Context) error {
			payment, err := s.paymentRepo.GetByID(txCtx, paymentID)
			if err != nil {
				return err
			}
			if payment.Status.IsTerminal() {
				return nil
			}

			if err := s.paymentRepo.MarkSettled(txCtx, payment.ID, settledAt); err != nil {
				return err
			}
			if err := s.mandateRepo.UpdateStatus(txCtx, payment.MandateID, entities.MandateStatusExhausted); err != nil {
				return err
			}

			mandate, err := s.mandateRepo.GetByID(txCtx, payment.MandateID)
			if err != nil {
				return err
			}
			if err := s.intentRepo.UpdateStatus(txCtx, mandate.IntentID, entities.IntentStatusExecuted); err != nil {
				return err
			}

			// Re-read so the receipt hashes the settled state.
			settled, err := s.paymentRepo.GetByID(txCtx, payment.ID)
			if err != nil {
				return err
			}
			_, err = s.receipts.Append(txCtx, settled)
			return err
		})
		if err == nil {
			logger.Info(ctx, "payment settled", zap.String("payment_id", paymentID.String()))
			return nil
		}
		if !errors.Is(err, domainerrors.ErrAlreadyExists) {
			return err
		}
		lastErr = err
		logger.Warn(ctx, "settlement lost receipt append race, retrying",
			zap.String("payment_id", paymentID.String()),
			zap.Int("attempt", attempt+1))
	}
	return lastErr
}

// Finish moves a payment to FAILED or CANCELLED. Terminal payments are left
// untouched.
func (s *SettlementUsecase) Finish(ctx context.Context, paymentID uuid.UUID, status entities.PaymentStatus) error {
	if status != entities.PaymentStatusFailed && status != entities.PaymentStatusCancelled {
		return domainerrors.InternalError(errors.New("finish accepts only FAILED or CANCELLED"))
	}
	return s.uow.Do(ctx, func(txCtx context.Context) error {
		payment, err := s.paymentRepo.GetByID(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status.IsTerminal() {
			return nil
		}
		return s.paymentRepo.UpdateStatus(txCtx, paymentID, status)
	})
}
