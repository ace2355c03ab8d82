package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, status, appErr.Status)
	require.Equal(t, code, appErr.Code)
}

func TestPolicyGate_HappyPath(t *testing.T) {
	s := newTestStack(t)
	agent, policy := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	intent := s.seedIntent(t, agent.ID, "v1", 199)

	gotIntent, gotPolicy, err := s.gate.Check(context.Background(), agent.ID, intent.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, intent.ID, gotIntent.ID)
	require.Equal(t, policy.ID, gotPolicy.ID)
}

func TestPolicyGate_IntentNotFound(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)

	_, _, err := s.gate.Check(context.Background(), agent.ID, uuid.New(), time.Now())
	requireCode(t, err, 404, domainerrors.CodeIntentNotFound)
}

func TestPolicyGate_ForeignIntentIsForbidden(t *testing.T) {
	s := newTestStack(t)
	owner, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	intent := s.seedIntent(t, owner.ID, "v1", 100)

	other, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	_, _, err := s.gate.Check(context.Background(), other.ID, intent.ID, time.Now())
	requireCode(t, err, 403, domainerrors.CodeForbidden)
}

func TestPolicyGate_InactiveAgent(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	intent := s.seedIntent(t, agent.ID, "v1", 100)
	mustExec(t, s.db, `UPDATE agents SET status = 'suspended' WHERE id = ?`, agent.ID.String())

	_, _, err := s.gate.Check(context.Background(), agent.ID, intent.ID, time.Now())
	requireCode(t, err, 422, domainerrors.CodeAgentInactive)
}

func TestPolicyGate_NoActivePolicy(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	intent := s.seedIntent(t, agent.ID, "v1", 100)
	mustExec(t, s.db, `UPDATE policies SET expires_at = ? WHERE agent_id = ?`,
		time.Now().Add(-time.Hour), agent.ID.String())

	_, _, err := s.gate.Check(context.Background(), agent.ID, intent.ID, time.Now())
	requireCode(t, err, 404, domainerrors.CodePolicyNotFound)
}

func TestPolicyGate_VendorNotAllowed(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	intent := s.seedIntent(t, agent.ID, "v2", 100)

	_, _, err := s.gate.Check(context.Background(), agent.ID, intent.ID, time.Now())
	requireCode(t, err, 422, domainerrors.CodeVendorNotAllowed)
}

func TestPolicyGate_AmountExceedsCap(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)
	intent := s.seedIntent(t, agent.ID, "v1", 501)

	_, _, err := s.gate.Check(context.Background(), agent.ID, intent.ID, time.Now())
	requireCode(t, err, 422, domainerrors.CodeAmountExceedsCap)
}

func TestPolicyGate_DailyLimit(t *testing.T) {
	s := newTestStack(t)
	agent, policy := s.seedAgent(t, []string{"v1"}, 400, 500, false)
	ctx := context.Background()

	// A settled 300 earlier today leaves 200 of headroom.
	first := s.seedIntent(t, agent.ID, "v1", 300)
	firstMandate := s.seedMandate(t, agent.ID, first.ID)
	now := time.Now()
	payment := &entities.Payment{
		ID:        uuid.New(),
		MandateID: firstMandate.ID,
		AgentID:   agent.ID,
		Rail:      entities.RailCard,
		Amount:    300,
		Currency:  "USD",
		Status:    entities.PaymentStatusSettled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.paymentRepo.Create(ctx, payment))

	over := s.seedIntent(t, agent.ID, "v1", 300)
	_, _, err := s.gate.Check(ctx, agent.ID, over.ID, now)
	requireCode(t, err, 422, domainerrors.CodeDailyLimitExceeded)

	var appErr *domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, int64(200), details["remaining"])

	// Exactly the remaining amount still passes.
	fits := s.seedIntent(t, agent.ID, "v1", 200)
	_, gotPolicy, err := s.gate.Check(ctx, agent.ID, fits.ID, now)
	require.NoError(t, err)
	require.Equal(t, policy.ID, gotPolicy.ID)
}

func TestPolicyGate_ConsumedMandateNotDoubleCounted(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 100, false)
	ctx := context.Background()

	intent := s.seedIntent(t, agent.ID, "v1", 60)
	mandate := s.seedMandate(t, agent.ID, intent.ID)

	// Once a live payment consumes the mandate its 60 moves from the
	// reserved side to the spent side, not both.
	now := time.Now()
	require.NoError(t, s.paymentRepo.Create(ctx, &entities.Payment{
		ID:        uuid.New(),
		MandateID: mandate.ID,
		AgentID:   agent.ID,
		Rail:      entities.RailCard,
		Amount:    60,
		Currency:  "USD",
		Status:    entities.PaymentStatusSettled,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	fits := s.seedIntent(t, agent.ID, "v1", 40)
	_, _, err := s.gate.Check(ctx, agent.ID, fits.ID, now)
	require.NoError(t, err)

	over := s.seedIntent(t, agent.ID, "v1", 41)
	_, _, err = s.gate.Check(ctx, agent.ID, over.ID, now)
	requireCode(t, err, 422, domainerrors.CodeDailyLimitExceeded)
}

func TestPolicyGate_GreatestVersionWins(t *testing.T) {
	s := newTestStack(t)
	agent, _ := s.seedAgent(t, []string{"v1"}, 500, 5000, false)

	// A stricter v2 supersedes v1.
	v2, err := s.policies.Create(context.Background(), agent.ID, &entities.CreatePolicyInput{
		VendorAllowlist: []string{"v1"},
		AmountCap:       100,
		DailyCap:        5000,
		RiskTier:        entities.RiskTierLow,
		ExpiresInHours:  24,
	})
	require.NoError(t, err)
	require.Equal(t, 2, v2.Version)

	intent := s.seedIntent(t, agent.ID, "v1", 150)
	_, _, err = s.gate.Check(context.Background(), agent.ID, intent.ID, time.Now())
	requireCode(t, err, 422, domainerrors.CodeAmountExceedsCap)
}

func TestStartOfDayUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	now := time.Date(2026, 3, 1, 4, 30, 0, 0, loc) // 2026-02-28T21:30Z
	got := startOfDayUTC(now)
	require.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), got)
}
