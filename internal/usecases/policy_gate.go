package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PolicyGate is the single authoritative answer to "may this intent become
// a mandate right now". Every failure is a typed reason code; transient
// store failures are fail-closed as POLICY_CHECK_FAILED.
type PolicyGate struct {
	intentRepo  repositories.IntentRepository
	agentRepo   repositories.AgentRepository
	policyRepo  repositories.PolicyRepository
	paymentRepo repositories.PaymentRepository
	mandateRepo repositories.MandateRepository
}

// NewPolicyGate creates a new policy gate
func NewPolicyGate(
	intentRepo repositories.IntentRepository,
	agentRepo repositories.AgentRepository,
	policyRepo repositories.PolicyRepository,
	paymentRepo repositories.PaymentRepository,
	mandateRepo repositories.MandateRepository,
) *PolicyGate {
	return &PolicyGate{
		intentRepo:  intentRepo,
		agentRepo:   agentRepo,
		policyRepo:  policyRepo,
		paymentRepo: paymentRepo,
		mandateRepo: mandateRepo,
	}
}

func startOfDayUTC(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func failClosed(err error) error {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}
	return domainerrors.NewAppError(500, domainerrors.CodePolicyCheckFailed,
		"policy check failed", err)
}

// Check runs the evaluation order, first failure wins. It must be called
// inside the mandate-issuing transaction: the policy row is read with a
// row-level lock so the daily-cap sum and the mandate write are linearized.
func (g *PolicyGate) Check(ctx context.Context, agentID, intentID uuid.UUID, now time.Time) (*entities.PurchaseIntent, *entities.Policy, error) {
	intent, err := g.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.NotFound(domainerrors.CodeIntentNotFound, "intent not found")
		}
		return nil, nil, failClosed(err)
	}
	if intent.AgentID != agentID {
		return nil, nil, domainerrors.Forbidden("intent belongs to another agent")
	}

	agent, err := g.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, nil, failClosed(err)
	}
	if !agent.IsActive() {
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeAgentInactive,
			fmt.Sprintf("agent is %s", agent.Status))
	}

	policy, err := g.policyRepo.GetActiveForUpdate(ctx, agentID, now)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.NotFound(domainerrors.CodePolicyNotFound, "no active policy for agent")
		}
		return nil, nil, failClosed(err)
	}

	if !policy.AllowsVendor(intent.Vendor) {
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeVendorNotAllowed,
			fmt.Sprintf("vendor %q is not in the allowlist", intent.Vendor))
	}

	if intent.Amount > policy.AmountCap {
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeAmountExceedsCap,
			"amount exceeds the per-transaction cap").
			WithDetails(map[string]interface{}{"amountCap": policy.AmountCap})
	}

	spent, err := g.paymentRepo.SumDailySpendByPolicy(ctx, policy.ID, startOfDayUTC(now))
	if err != nil {
		return nil, nil, failClosed(err)
	}
	// Mandates already issued today reserve their amount until a payment
	// consumes them or they leave ACTIVE, otherwise two issues under the same
	// cap could both pass before either executes.
	reserved, err := g.mandateRepo.SumOutstandingByPolicy(ctx, policy.ID, startOfDayUTC(now))
	if err != nil {
		return nil, nil, failClosed(err)
	}
	remaining := policy.DailyCap - spent - reserved
	if intent.Amount > remaining {
		logger.Info(ctx, "daily cap denied mandate",
			zap.String("agent_id", agentID.String()),
			zap.Int64("spent", spent),
			zap.Int64("reserved", reserved),
			zap.Int64("remaining", remaining))
		return nil, nil, domainerrors.PolicyViolation(domainerrors.CodeDailyLimitExceeded,
			"daily spending limit exceeded").
			WithDetails(map[string]interface{}{"remaining": remaining})
	}

	return intent, policy, nil
}
