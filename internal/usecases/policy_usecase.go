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

// PolicyUsecase manages policy versions
type PolicyUsecase struct {
	policyRepo repositories.PolicyRepository
	agentRepo  repositories.AgentRepository
	uow        repositories.UnitOfWork
}

// NewPolicyUsecase creates a new policy usecase
func NewPolicyUsecase(
	policyRepo repositories.PolicyRepository,
	agentRepo repositories.AgentRepository,
	uow repositories.UnitOfWork,
) *PolicyUsecase {
	return &PolicyUsecase{policyRepo: policyRepo, agentRepo: agentRepo, uow: uow}
}

// Create inserts the next policy version for the agent. Policies are
// immutable; superseding means inserting a greater version.
func (u *PolicyUsecase) Create(ctx context.Context, agentID uuid.UUID, input *entities.CreatePolicyInput) (*entities.Policy, error) {
	if _, err := u.agentRepo.GetByID(ctx, agentID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "unknown agent")
		}
		return nil, domainerrors.DatabaseError(err)
	}

	var policy *entities.Policy
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		version, err := u.policyRepo.GetGreatestVersion(txCtx, agentID)
		if err != nil {
			return domainerrors.DatabaseError(err)
		}

		now := time.Now()
		p := &entities.Policy{
			ID:              uuid.New(),
			AgentID:         agentID,
			Version:         version + 1,
			VendorAllowlist: input.VendorAllowlist,
			AmountCap:       input.AmountCap,
			DailyCap:        input.DailyCap,
			RiskTier:        input.RiskTier,
			RailFlags:       entities.RailFlags{Direct: input.DirectRail},
			ExpiresAt:       now.Add(time.Duration(input.ExpiresInHours) * time.Hour),
			CreatedAt:       now,
		}
		if err := u.policyRepo.Create(txCtx, p); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return domainerrors.Conflict(domainerrors.CodeInvalidRequest, "policy version collided, retry")
			}
			return domainerrors.DatabaseError(err)
		}
		policy = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "policy created",
		zap.String("agent_id", agentID.String()),
		zap.Int("version", policy.Version),
		zap.Time("expires_at", policy.ExpiresAt))
	return policy, nil
}

// GetActive returns the policy currently consulted for the agent.
func (u *PolicyUsecase) GetActive(ctx context.Context, agentID uuid.UUID) (*entities.Policy, error) {
	policy, err := u.policyRepo.GetActive(ctx, agentID, time.Now())
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodePolicyNotFound, "no active policy for agent")
		}
		return nil, domainerrors.DatabaseError(err)
	}
	return policy, nil
}
