package repositories

import (
	"context"
	"testing"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAgentRepository_BasicFlow(t *testing.T) {
	db := newTestDB(t)
	createAgentTable(t, db)
	repo := NewAgentRepository(db)
	ctx := context.Background()

	a := &entities.Agent{
		ID:        uuid.New(),
		Name:      "checkout-bot",
		Status:    entities.AgentStatusActive,
		RiskTier:  entities.RiskTierLow,
		PublicKey: "aabbcc",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "checkout-bot", got.Name)
	require.True(t, got.IsActive())
	require.Empty(t, got.APIKeyHash)

	require.NoError(t, repo.UpdateAPIKeyHash(ctx, a.ID, "$2a$10$hash"))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "$2a$10$hash", got.APIKeyHash)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	require.ErrorIs(t, repo.UpdateAPIKeyHash(ctx, uuid.New(), "x"), domainerrors.ErrNotFound)
}
