package usecases

import (
	"context"
	"testing"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAgentCreate(t *testing.T) {
	s := newTestStack(t)

	agent, err := s.agents.Create(context.Background(), "shopper", entities.RiskTierMedium)
	require.NoError(t, err)
	require.Equal(t, entities.AgentStatusActive, agent.Status)
	require.Equal(t, s.signer.PublicKeyHex(), agent.PublicKey)

	_, err = s.agents.Create(context.Background(), "", entities.RiskTierLow)
	requireCode(t, err, 400, domainerrors.CodeValidationError)

	_, err = s.agents.Create(context.Background(), "shopper", entities.RiskTier("EXTREME"))
	requireCode(t, err, 400, domainerrors.CodeValidationError)
}

func TestAgentAPIKeyLifecycle(t *testing.T) {
	s := newTestStack(t)
	agent, err := s.agents.Create(context.Background(), "shopper", entities.RiskTierLow)
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.agents.IssueAPIKey(ctx, agent.ID)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	verified, err := s.agents.VerifyAPIKey(ctx, agent.ID, key)
	require.NoError(t, err)
	require.Equal(t, agent.ID, verified.ID)

	_, err = s.agents.VerifyAPIKey(ctx, agent.ID, "wrong-key")
	requireCode(t, err, 401, domainerrors.CodeUnauthorized)

	// Rotation invalidates the old key.
	rotated, err := s.agents.IssueAPIKey(ctx, agent.ID)
	require.NoError(t, err)
	require.NotEqual(t, key, rotated)
	_, err = s.agents.VerifyAPIKey(ctx, agent.ID, key)
	requireCode(t, err, 401, domainerrors.CodeUnauthorized)
	_, err = s.agents.VerifyAPIKey(ctx, agent.ID, rotated)
	require.NoError(t, err)
}

func TestAgentVerifyAPIKey_NoKeyIssued(t *testing.T) {
	s := newTestStack(t)
	agent, err := s.agents.Create(context.Background(), "shopper", entities.RiskTierLow)
	require.NoError(t, err)

	_, err = s.agents.VerifyAPIKey(context.Background(), agent.ID, "anything")
	requireCode(t, err, 401, domainerrors.CodeUnauthorized)
}

func TestAgentVerifyAPIKey_InactiveAgent(t *testing.T) {
	s := newTestStack(t)
	agent, err := s.agents.Create(context.Background(), "shopper", entities.RiskTierLow)
	require.NoError(t, err)
	key, err := s.agents.IssueAPIKey(context.Background(), agent.ID)
	require.NoError(t, err)

	mustExec(t, s.db, `UPDATE agents SET status = 'suspended' WHERE id = ?`, agent.ID.String())
	_, err = s.agents.VerifyAPIKey(context.Background(), agent.ID, key)
	requireCode(t, err, 403, domainerrors.CodeForbidden)
}

func TestAgentIssueToken(t *testing.T) {
	s := newTestStack(t)
	agent, err := s.agents.Create(context.Background(), "shopper", entities.RiskTierLow)
	require.NoError(t, err)

	token, err := s.agents.IssueToken(context.Background(), agent.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = s.agents.IssueToken(context.Background(), uuid.New())
	requireCode(t, err, 404, domainerrors.CodeInvalidRequest)
}
