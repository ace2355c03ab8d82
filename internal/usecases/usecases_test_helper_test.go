package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainRepos "agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/internal/infrastructure/rails"
	infraRepos "agent-gate.backend/internal/infrastructure/repositories"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSeedHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

// testStack wires the full usecase graph over an in-memory sqlite store.
type testStack struct {
	db          *gorm.DB
	agentRepo   domainRepos.AgentRepository
	policyRepo  domainRepos.PolicyRepository
	intentRepo  domainRepos.IntentRepository
	mandateRepo domainRepos.MandateRepository
	paymentRepo domainRepos.PaymentRepository
	receiptRepo domainRepos.ReceiptRepository
	idemRepo    domainRepos.IdempotencyRepository
	deadRepo    domainRepos.DeadLetterRepository
	vendorRepo  domainRepos.VendorEndpointRepository
	uow         domainRepos.UnitOfWork
	signer      *crypto.MandateSigner

	agents     *AgentUsecase
	policies   *PolicyUsecase
	intents    *IntentUsecase
	gate       *PolicyGate
	mandates   *MandateUsecase
	receipts   *ReceiptUsecase
	settlement *SettlementUsecase
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	createCoreTables(t, db)

	signer, err := crypto.NewMandateSigner(testSeedHex)
	require.NoError(t, err)

	s := &testStack{
		db:          db,
		agentRepo:   infraRepos.NewAgentRepository(db),
		policyRepo:  infraRepos.NewPolicyRepository(db),
		intentRepo:  infraRepos.NewIntentRepository(db),
		mandateRepo: infraRepos.NewMandateRepository(db),
		paymentRepo: infraRepos.NewPaymentRepository(db),
		receiptRepo: infraRepos.NewReceiptRepository(db),
		idemRepo:    infraRepos.NewIdempotencyRepository(db),
		deadRepo:    infraRepos.NewDeadLetterRepository(db),
		vendorRepo:  infraRepos.NewVendorEndpointRepository(db),
		uow:         infraRepos.NewUnitOfWork(db),
		signer:      signer,
	}
	s.agents = NewAgentUsecase(s.agentRepo, signer, jwt.NewJWTService("test-secret", time.Hour))
	s.policies = NewPolicyUsecase(s.policyRepo, s.agentRepo, s.uow)
	s.intents = NewIntentUsecase(s.intentRepo, s.agentRepo)
	s.gate = NewPolicyGate(s.intentRepo, s.agentRepo, s.policyRepo, s.paymentRepo, s.mandateRepo)
	s.mandates = NewMandateUsecase(s.mandateRepo, s.intentRepo, s.gate, signer, s.uow)
	s.receipts = NewReceiptUsecase(s.receiptRepo, s.paymentRepo, s.mandateRepo, s.intentRepo)
	s.settlement = NewSettlementUsecase(s.paymentRepo, s.mandateRepo, s.intentRepo, s.receipts, s.uow)
	return s
}

// payments builds a PaymentUsecase around stubbed rail adapters.
func (s *testStack) payments(t *testing.T, directMax int64, adapters map[entities.Rail]rails.Adapter) *PaymentUsecase {
	t.Helper()
	router := rails.NewRouter(s.vendorRepo, directMax)
	return NewPaymentUsecase(s.paymentRepo, s.mandateRepo, s.agentRepo, s.policyRepo, router, adapters, s.settlement)
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createCoreTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE agents (
		id TEXT PRIMARY KEY, name TEXT NOT NULL, status TEXT NOT NULL,
		risk_tier TEXT NOT NULL, public_key TEXT NOT NULL, api_key_hash TEXT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE policies (
		id TEXT PRIMARY KEY, agent_id TEXT NOT NULL, version INTEGER NOT NULL,
		vendor_allowlist TEXT NOT NULL DEFAULT '[]', amount_cap INTEGER NOT NULL,
		daily_cap INTEGER NOT NULL, risk_tier TEXT NOT NULL,
		direct_rail BOOLEAN NOT NULL DEFAULT 0, expires_at DATETIME NOT NULL,
		created_at DATETIME, UNIQUE (agent_id, version)
	);`)
	mustExec(t, db, `CREATE TABLE purchase_intents (
		id TEXT PRIMARY KEY, agent_id TEXT NOT NULL, vendor TEXT NOT NULL,
		amount INTEGER NOT NULL, currency TEXT NOT NULL, description TEXT,
		metadata TEXT DEFAULT '{}', status TEXT NOT NULL,
		created_at DATETIME, updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE mandates (
		id TEXT PRIMARY KEY, intent_id TEXT NOT NULL UNIQUE, agent_id TEXT NOT NULL,
		policy_id TEXT NOT NULL, vendor TEXT NOT NULL, amount INTEGER NOT NULL,
		currency TEXT NOT NULL, signature TEXT NOT NULL, hash TEXT NOT NULL,
		public_key TEXT NOT NULL, status TEXT NOT NULL, issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL, created_at DATETIME, updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE payments (
		id TEXT PRIMARY KEY, mandate_id TEXT NOT NULL, agent_id TEXT NOT NULL,
		rail TEXT NOT NULL, rail_reason TEXT, provider_ref TEXT,
		amount INTEGER NOT NULL, currency TEXT NOT NULL, status TEXT NOT NULL,
		settled_mandate_id TEXT UNIQUE, settled_at DATETIME,
		created_at DATETIME, updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE receipts (
		id TEXT PRIMARY KEY, payment_id TEXT NOT NULL UNIQUE, agent_id TEXT NOT NULL,
		chain_index INTEGER NOT NULL, prev_hash TEXT, hash TEXT NOT NULL,
		created_at DATETIME, UNIQUE (agent_id, chain_index)
	);`)
	mustExec(t, db, `CREATE TABLE idempotency (
		route TEXT NOT NULL, key TEXT NOT NULL, request_fingerprint TEXT NOT NULL,
		status TEXT NOT NULL, status_code INTEGER, response_body TEXT,
		created_at DATETIME, PRIMARY KEY (route, key)
	);`)
	mustExec(t, db, `CREATE TABLE vendor_direct_endpoints (
		id TEXT PRIMARY KEY, vendor TEXT NOT NULL UNIQUE, endpoint_url TEXT NOT NULL,
		vendor_public_key TEXT, enabled BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME, updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE webhook_dead_letters (
		id TEXT PRIMARY KEY, rail TEXT NOT NULL, event_id TEXT NOT NULL,
		event_type TEXT NOT NULL, payload TEXT, error TEXT, created_at DATETIME
	);`)
}

// seedAgent creates an active agent with an active policy.
func (s *testStack) seedAgent(t *testing.T, allowlist []string, amountCap, dailyCap int64, direct bool) (*entities.Agent, *entities.Policy) {
	t.Helper()
	ctx := context.Background()
	agent, err := s.agents.Create(ctx, "test-agent", entities.RiskTierLow)
	require.NoError(t, err)
	policy, err := s.policies.Create(ctx, agent.ID, &entities.CreatePolicyInput{
		VendorAllowlist: allowlist,
		AmountCap:       amountCap,
		DailyCap:        dailyCap,
		RiskTier:        entities.RiskTierLow,
		DirectRail:      direct,
		ExpiresInHours:  24,
	})
	require.NoError(t, err)
	return agent, policy
}

// seedIntent creates a pending intent for the agent.
func (s *testStack) seedIntent(t *testing.T, agentID uuid.UUID, vendor string, amount int64) *entities.PurchaseIntent {
	t.Helper()
	intent, err := s.intents.Create(context.Background(), agentID, &entities.CreateIntentInput{
		Vendor:   vendor,
		Amount:   amount,
		Currency: "USD",
	})
	require.NoError(t, err)
	return intent
}

// seedMandate runs the whole issue path.
func (s *testStack) seedMandate(t *testing.T, agentID uuid.UUID, intentID uuid.UUID) *entities.Mandate {
	t.Helper()
	mandate, err := s.mandates.Issue(context.Background(), agentID, &entities.CreateMandateInput{
		IntentID: intentID.String(),
	})
	require.NoError(t, err)
	return mandate
}

// stubAdapter is a scripted rail adapter.
type stubAdapter struct {
	rail    entities.Rail
	result  *rails.PaymentResult
	err     error
	calls   int
	lastReq *rails.PaymentRequest
}

func (a *stubAdapter) Rail() entities.Rail { return a.rail }

func (a *stubAdapter) Execute(ctx context.Context, req *rails.PaymentRequest) (*rails.PaymentResult, error) {
	a.calls++
	a.lastReq = req
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}
