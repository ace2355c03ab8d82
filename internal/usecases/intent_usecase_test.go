package usecases

import (
	"context"
	"testing"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIntentCreate(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)

	intent, err := s.intents.Create(context.Background(), agent.ID, &entities.CreateIntentInput{
		Vendor:      "acme",
		Amount:      199,
		Currency:    "USD",
		Description: "api credits",
		Metadata:    map[string]interface{}{"order": "A-1"},
	})
	require.NoError(t, err)
	require.Equal(t, entities.IntentStatusPending, intent.Status)
	require.JSONEq(t, `{"order":"A-1"}`, intent.Metadata)

	got, err := s.intents.Get(context.Background(), agent.ID, intent.ID)
	require.NoError(t, err)
	require.Equal(t, "acme", got.Vendor)
	require.Equal(t, int64(199), got.Amount)
}

func TestIntentCreate_EmptyMetadataDefaults(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)

	intent, err := s.intents.Create(context.Background(), agent.ID, &entities.CreateIntentInput{
		Vendor:   "acme",
		Amount:   10,
		Currency: "USD",
	})
	require.NoError(t, err)
	require.Equal(t, "{}", intent.Metadata)
}

func TestIntentCreate_UnknownAgent(t *testing.T) {
	s := newTestStack(t)
	_, err := s.intents.Create(context.Background(), uuid.New(), &entities.CreateIntentInput{
		Vendor:   "acme",
		Amount:   10,
		Currency: "USD",
	})
	requireCode(t, err, 401, domainerrors.CodeUnauthorized)
}

func TestIntentCreate_InactiveAgent(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	mustExec(t, s.db, `UPDATE agents SET status = 'suspended' WHERE id = ?`, agent.ID.String())

	_, err := s.intents.Create(context.Background(), agent.ID, &entities.CreateIntentInput{
		Vendor:   "acme",
		Amount:   10,
		Currency: "USD",
	})
	requireCode(t, err, 422, domainerrors.CodeAgentInactive)
}

func TestIntentGet_Ownership(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	intent := s.seedIntent(t, agent.ID, "acme", 100)

	other, _ := s.seedAgent(t, []string{"acme"}, 500, 5000, false)
	_, err := s.intents.Get(context.Background(), other.ID, intent.ID)
	requireCode(t, err, 403, domainerrors.CodeForbidden)

	_, err = s.intents.Get(context.Background(), agent.ID, uuid.New())
	requireCode(t, err, 404, domainerrors.CodeIntentNotFound)
}
