package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/internal/infrastructure/rails"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentUsecase executes payments against active mandates
type PaymentUsecase struct {
	paymentRepo repositories.PaymentRepository
	mandateRepo repositories.MandateRepository
	agentRepo   repositories.AgentRepository
	policyRepo  repositories.PolicyRepository
	router      *rails.Router
	adapters    map[entities.Rail]rails.Adapter
	settlement  *SettlementUsecase
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	paymentRepo repositories.PaymentRepository,
	mandateRepo repositories.MandateRepository,
	agentRepo repositories.AgentRepository,
	policyRepo repositories.PolicyRepository,
	router *rails.Router,
	adapters map[entities.Rail]rails.Adapter,
	settlement *SettlementUsecase,
) *PaymentUsecase {
	return &PaymentUsecase{
		paymentRepo: paymentRepo,
		mandateRepo: mandateRepo,
		agentRepo:   agentRepo,
		policyRepo:  policyRepo,
		router:      router,
		adapters:    adapters,
		settlement:  settlement,
	}
}

// Execute validates the mandate, routes a rail and runs the settlement
// attempt. A pending provider answer leaves the payment PROCESSING for the
// webhook to finish.
func (u *PaymentUsecase) Execute(ctx context.Context, agentID uuid.UUID, input *entities.ExecutePaymentInput) (*entities.ExecutePaymentResponse, error) {
	mandateID, err := uuid.Parse(input.MandateID)
	if err != nil {
		return nil, domainerrors.BadRequest(domainerrors.CodeValidationError, "mandateId is not a UUID")
	}

	now := time.Now()
	mandate, agent, err := u.validateMandate(ctx, agentID, mandateID, now)
	if err != nil {
		return nil, err
	}

	policy, err := u.policyRepo.GetByID(ctx, mandate.PolicyID)
	if err != nil {
		return nil, domainerrors.DatabaseError(err)
	}

	decision, err := u.router.Select(ctx, rails.RouteContext{
		Amount:   mandate.Amount,
		Currency: mandate.Currency,
		Vendor:   mandate.Vendor,
		RiskTier: agent.RiskTier,
		Flags:    policy.RailFlags,
	})
	if err != nil {
		return nil, domainerrors.DatabaseError(err)
	}

	payment := &entities.Payment{
		ID:         uuid.New(),
		MandateID:  mandate.ID,
		AgentID:    agentID,
		Rail:       decision.Rail,
		RailReason: decision.Reason,
		Amount:     mandate.Amount,
		Currency:   mandate.Currency,
		Status:     entities.PaymentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.paymentRepo.Create(ctx, payment); err != nil {
		return nil, domainerrors.DatabaseError(err)
	}

	logger.Info(ctx, "payment routed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("rail", string(decision.Rail)),
		zap.String("reason", decision.Reason))

	adapter, ok := u.adapters[decision.Rail]
	if !ok {
		return nil, domainerrors.InternalError(fmt.Errorf("no adapter for rail %s", decision.Rail))
	}

	result, err := adapter.Execute(ctx, &rails.PaymentRequest{
		PaymentID: payment.ID,
		MandateID: mandate.ID,
		AgentID:   agentID,
		Vendor:    mandate.Vendor,
		Amount:    mandate.Amount,
		Currency:  mandate.Currency,
		Metadata:  input.Metadata,
		Endpoint:  decision.Endpoint,
	})
	if err != nil {
		u.failPayment(ctx, payment.ID)
		return nil, err
	}

	return u.applyResult(ctx, payment, result)
}

// validateMandate applies the execute-time checks: ownership, agent status,
// mandate spendability, signature integrity and the one-settlement rule.
func (u *PaymentUsecase) validateMandate(ctx context.Context, agentID, mandateID uuid.UUID, now time.Time) (*entities.Mandate, *entities.Agent, error) {
	mandate, err := u.mandateRepo.GetByID(ctx, mandateID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.NotFound(domainerrors.CodeMandateNotFound, "mandate not found")
		}
		return nil, nil, domainerrors.DatabaseError(err)
	}
	if mandate.AgentID != agentID {
		return nil, nil, domainerrors.Forbidden("mandate belongs to another agent")
	}

	agent, err := u.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, nil, domainerrors.DatabaseError(err)
	}
	if !agent.IsActive() {
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeAgentInactive, "agent is not active")
	}

	switch {
	case mandate.Status == entities.MandateStatusRevoked:
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeMandateRevoked, "mandate was revoked")
	case mandate.Status == entities.MandateStatusExhausted:
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeMandateExhausted, "mandate already settled a payment")
	case mandate.Status == entities.MandateStatusExpired || !mandate.ExpiresAt.After(now):
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeMandateExpired, "mandate has expired")
	}

	if !crypto.VerifyMandateSignature(mandate.CanonicalBody(), mandate.Signature, mandate.PublicKey) {
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeInvalidSignature, "mandate signature does not verify")
	}

	existing, err := u.paymentRepo.ListByMandate(ctx, mandateID)
	if err != nil {
		return nil, nil, domainerrors.DatabaseError(err)
	}
	for _, p := range existing {
		if p.Status == entities.PaymentStatusSettled {
			return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeMandateExhausted, "mandate already settled a payment")
		}
		if !p.Status.IsTerminal() {
			return nil, nil, domainerrors.Conflict(domainerrors.CodeInvalidRequest, "a payment is already in flight for this mandate")
		}
	}

	return mandate, agent, nil
}

func (u *PaymentUsecase) applyResult(ctx context.Context, payment *entities.Payment, result *rails.PaymentResult) (*entities.ExecutePaymentResponse, error) {
	if result.ProviderRef != "" {
		if err := u.paymentRepo.SetProviderRef(ctx, payment.ID, result.ProviderRef); err != nil {
			return nil, domainerrors.DatabaseError(err)
		}
	}

	switch result.Status {
	case rails.ResultSettled:
		if err := u.settlement.Settle(ctx, payment.ID, time.Now()); err != nil {
			return nil, domainerrors.DatabaseError(err)
		}
		payment.Status = entities.PaymentStatusSettled
	case rails.ResultPending:
		if err := u.paymentRepo.UpdateStatus(ctx, payment.ID, entities.PaymentStatusProcessing); err != nil {
			return nil, domainerrors.DatabaseError(err)
		}
		payment.Status = entities.PaymentStatusProcessing
	default:
		u.failPayment(ctx, payment.ID)
		msg := result.Error
		if msg == "" {
			msg = "payment was declined by the provider"
		}
		return nil, domainerrors.PaymentDeclined(msg)
	}

	return &entities.ExecutePaymentResponse{
		PaymentID:   payment.ID,
		Status:      payment.Status,
		Rail:        payment.Rail,
		RailReason:  payment.RailReason,
		ProviderRef: result.ProviderRef,
	}, nil
}

// Get returns a payment owned by the calling agent.
func (u *PaymentUsecase) Get(ctx context.Context, agentID, paymentID uuid.UUID) (*entities.Payment, error) {
	payment, err := u.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodePaymentNotFound, "payment not found")
		}
		return nil, domainerrors.DatabaseError(err)
	}
	if payment.AgentID != agentID {
		return nil, domainerrors.Forbidden("payment belongs to another agent")
	}
	return payment, nil
}

func (u *PaymentUsecase) failPayment(ctx context.Context, paymentID uuid.UUID) {
	if err := u.settlement.Finish(ctx, paymentID, entities.PaymentStatusFailed); err != nil {
		logger.Error(ctx, "failed to mark payment failed",
			zap.String("payment_id", paymentID.String()), zap.Error(err))
	}
}
