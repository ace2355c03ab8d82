package usecases

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/jwt"
	"agent-gate.backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgentUsecase handles agent provisioning and credentials
type AgentUsecase struct {
	agentRepo  repositories.AgentRepository
	signer     *crypto.MandateSigner
	jwtService *jwt.JWTService
}

// NewAgentUsecase creates a new agent usecase
func NewAgentUsecase(agentRepo repositories.AgentRepository, signer *crypto.MandateSigner, jwtService *jwt.JWTService) *AgentUsecase {
	return &AgentUsecase{agentRepo: agentRepo, signer: signer, jwtService: jwtService}
}

// Create registers an agent. The gateway's signing public key active at
// creation time is recorded on the agent so old mandates stay verifiable
// after a key rotation.
func (u *AgentUsecase) Create(ctx context.Context, name string, riskTier entities.RiskTier) (*entities.Agent, error) {
	if name == "" {
		return nil, domainerrors.BadRequest(domainerrors.CodeValidationError, "name is required")
	}
	switch riskTier {
	case entities.RiskTierLow, entities.RiskTierMedium, entities.RiskTierHigh:
	default:
		return nil, domainerrors.BadRequest(domainerrors.CodeValidationError, "riskTier must be LOW, MEDIUM or HIGH")
	}

	now := time.Now()
	agent := &entities.Agent{
		ID:        uuid.New(),
		Name:      name,
		Status:    entities.AgentStatusActive,
		RiskTier:  riskTier,
		PublicKey: u.signer.PublicKeyHex(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.agentRepo.Create(ctx, agent); err != nil {
		return nil, domainerrors.DatabaseError(err)
	}

	logger.Info(ctx, "agent created",
		zap.String("agent_id", agent.ID.String()),
		zap.String("risk_tier", string(riskTier)))
	return agent, nil
}

// Get returns an agent by id.
func (u *AgentUsecase) Get(ctx context.Context, agentID uuid.UUID) (*entities.Agent, error) {
	agent, err := u.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodeInvalidRequest, "agent not found")
		}
		return nil, domainerrors.DatabaseError(err)
	}
	return agent, nil
}

// IssueAPIKey mints a fresh API key for the agent and stores only its
// bcrypt hash. The plaintext is returned exactly once.
func (u *AgentUsecase) IssueAPIKey(ctx context.Context, agentID uuid.UUID) (string, error) {
	if _, err := u.Get(ctx, agentID); err != nil {
		return "", err
	}

	key, err := crypto.GenerateAPIKey()
	if err != nil {
		return "", domainerrors.InternalError(err)
	}
	hash, err := crypto.HashAPIKey(key)
	if err != nil {
		return "", domainerrors.InternalError(err)
	}
	if err := u.agentRepo.UpdateAPIKeyHash(ctx, agentID, hash); err != nil {
		return "", domainerrors.DatabaseError(err)
	}

	logger.Info(ctx, "api key rotated", zap.String("agent_id", agentID.String()))
	return key, nil
}

// VerifyAPIKey resolves the agent and checks the presented key against the
// stored hash.
func (u *AgentUsecase) VerifyAPIKey(ctx context.Context, agentID uuid.UUID, key string) (*entities.Agent, error) {
	agent, err := u.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		return nil, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "invalid credentials")
	}
	if agent.APIKeyHash == "" || !crypto.CheckAPIKey(key, agent.APIKeyHash) {
		return nil, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "invalid credentials")
	}
	if !agent.IsActive() {
		return nil, domainerrors.Forbidden("agent is not active")
	}
	return agent, nil
}

// IssueToken creates a bearer JWT for the agent.
func (u *AgentUsecase) IssueToken(ctx context.Context, agentID uuid.UUID) (string, error) {
	agent, err := u.Get(ctx, agentID)
	if err != nil {
		return "", err
	}
	token, err := u.jwtService.GenerateToken(agent.ID, agent.Name)
	if err != nil {
		return "", domainerrors.InternalError(err)
	}
	return token, nil
}
