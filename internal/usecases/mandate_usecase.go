package usecases

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMandateHours is the validity window when the caller does not ask
// for one.
const DefaultMandateHours = 24

// MandateUsecase issues and serves signed mandates
type MandateUsecase struct {
	mandateRepo repositories.MandateRepository
	intentRepo  repositories.IntentRepository
	gate        *PolicyGate
	signer      *crypto.MandateSigner
	uow         repositories.UnitOfWork
}

// NewMandateUsecase creates a new mandate usecase
func NewMandateUsecase(
	mandateRepo repositories.MandateRepository,
	intentRepo repositories.IntentRepository,
	gate *PolicyGate,
	signer *crypto.MandateSigner,
	uow repositories.UnitOfWork,
) *MandateUsecase {
	return &MandateUsecase{
		mandateRepo: mandateRepo,
		intentRepo:  intentRepo,
		gate:        gate,
		signer:      signer,
		uow:         uow,
	}
}

// Issue converts a pending intent into a signed mandate. The policy gate,
// the signing and the mandate insert run in one transaction so the daily-cap
// arithmetic is linearized on the locked policy row. On a policy denial the
// intent is marked REJECTED.
func (u *MandateUsecase) Issue(ctx context.Context, agentID uuid.UUID, input *entities.CreateMandateInput) (*entities.Mandate, error) {
	intentID, err := uuid.Parse(input.IntentID)
	if err != nil {
		return nil, domainerrors.BadRequest(domainerrors.CodeValidationError, "intentId is not a UUID")
	}

	hours := input.ExpiresInHours
	if hours == 0 {
		hours = DefaultMandateHours
	}
	if hours < 1 || hours > entities.MaxMandateHours {
		return nil, domainerrors.BadRequest(domainerrors.CodeValidationError, "expiresInHours must be between 1 and 720")
	}

	var mandate *entities.Mandate
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		now := time.Now()
		intent, policy, err := u.gate.Check(txCtx, agentID, intentID, now)
		if err != nil {
			return err
		}
		if intent.Status != entities.IntentStatusPending {
			return domainerrors.Conflict(domainerrors.CodeInvalidRequest, "intent is not pending")
		}

		m := &entities.Mandate{
			ID:        uuid.New(),
			IntentID:  intent.ID,
			AgentID:   agentID,
			PolicyID:  policy.ID,
			Vendor:    intent.Vendor,
			Amount:    intent.Amount,
			Currency:  intent.Currency,
			Status:    entities.MandateStatusActive,
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Duration(hours) * time.Hour),
			CreatedAt: now,
			UpdatedAt: now,
		}

		signed, err := u.signer.Sign(m.CanonicalBody())
		if err != nil {
			return domainerrors.InternalError(err)
		}
		m.Signature = signed.Signature
		m.Hash = signed.Hash
		m.PublicKey = signed.PublicKey

		if err := u.mandateRepo.Create(txCtx, m); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return domainerrors.Conflict(domainerrors.CodeInvalidRequest, "a mandate already exists for this intent")
			}
			return domainerrors.DatabaseError(err)
		}
		if err := u.intentRepo.UpdateStatus(txCtx, intent.ID, entities.IntentStatusApproved); err != nil {
			return domainerrors.DatabaseError(err)
		}

		mandate = m
		return nil
	})
	if err != nil {
		u.rejectOnDenial(ctx, agentID, intentID, err)
		return nil, err
	}

	logger.Info(ctx, "mandate issued",
		zap.String("mandate_id", mandate.ID.String()),
		zap.String("intent_id", mandate.IntentID.String()),
		zap.String("agent_id", agentID.String()),
		zap.Time("expires_at", mandate.ExpiresAt))
	return mandate, nil
}

// rejectOnDenial flips the intent to REJECTED after a policy denial. The
// rejection is recorded outside the failed transaction, best effort.
func (u *MandateUsecase) rejectOnDenial(ctx context.Context, agentID, intentID uuid.UUID, cause error) {
	var appErr *domainerrors.AppError
	if !errors.As(cause, &appErr) || appErr.Status != 422 {
		return
	}
	intent, err := u.intentRepo.GetByID(ctx, intentID)
	if err != nil || intent.AgentID != agentID || intent.Status != entities.IntentStatusPending {
		return
	}
	if err := u.intentRepo.UpdateStatus(ctx, intentID, entities.IntentStatusRejected); err != nil {
		logger.Warn(ctx, "failed to mark intent rejected",
			zap.String("intent_id", intentID.String()), zap.Error(err))
	}
}

// Get returns a mandate owned by the calling agent.
func (u *MandateUsecase) Get(ctx context.Context, agentID, mandateID uuid.UUID) (*entities.Mandate, error) {
	mandate, err := u.mandateRepo.GetByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodeMandateNotFound, "mandate not found")
		}
		return nil, domainerrors.DatabaseError(err)
	}
	if mandate.AgentID != agentID {
		return nil, domainerrors.Forbidden("mandate belongs to another agent")
	}
	return mandate, nil
}
