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

func TestIntentRepository_BasicFlow(t *testing.T) {
	db := newTestDB(t)
	createIntentTable(t, db)
	repo := NewIntentRepository(db)
	ctx := context.Background()

	intent := &entities.PurchaseIntent{
		ID:          uuid.New(),
		AgentID:     uuid.New(),
		Vendor:      "api.vendor.example",
		Amount:      2500,
		Currency:    "USD",
		Description: "renew subscription",
		Status:      entities.IntentStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(ctx, intent))

	got, err := repo.GetByID(ctx, intent.ID)
	require.NoError(t, err)
	require.Equal(t, entities.IntentStatusPending, got.Status)
	require.Equal(t, "{}", got.Metadata)

	require.NoError(t, repo.UpdateStatus(ctx, intent.ID, entities.IntentStatusApproved))
	got, err = repo.GetByID(ctx, intent.ID)
	require.NoError(t, err)
	require.Equal(t, entities.IntentStatusApproved, got.Status)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	require.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), entities.IntentStatusRejected), domainerrors.ErrNotFound)
}
