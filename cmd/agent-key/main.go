package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agent-gate.backend/internal/config"
	"agent-gate.backend/internal/domain/entities"
	"agent-gate.backend/internal/infrastructure/repositories"
	"agent-gate.backend/internal/usecases"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/jwt"
)

var openAgentKeyDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{PrepareStmt: false})
}

var openAgentKeySQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

type agentKeyRuntime interface {
	CreateAgent(ctx context.Context, name string, tier entities.RiskTier) (*entities.Agent, error)
	IssueAPIKey(ctx context.Context, agentID uuid.UUID) (string, error)
	IssueToken(ctx context.Context, agentID uuid.UUID) (string, error)
}

type agentKeyDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (agentKeyRuntime, io.Closer, error)
	out     io.Writer
}

type agentKeyRuntimeImpl struct {
	agents *usecases.AgentUsecase
}

func (r agentKeyRuntimeImpl) CreateAgent(ctx context.Context, name string, tier entities.RiskTier) (*entities.Agent, error) {
	return r.agents.Create(ctx, name, tier)
}

func (r agentKeyRuntimeImpl) IssueAPIKey(ctx context.Context, agentID uuid.UUID) (string, error) {
	return r.agents.IssueAPIKey(ctx, agentID)
}

func (r agentKeyRuntimeImpl) IssueToken(ctx context.Context, agentID uuid.UUID) (string, error) {
	return r.agents.IssueToken(ctx, agentID)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultAgentKeyDeps() agentKeyDeps {
	return agentKeyDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (agentKeyRuntime, io.Closer, error) {
			db, err := openAgentKeyDB(cfg.Database.URL())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}

			sqlDB, err := openAgentKeySQLDB(db)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}

			signer, err := crypto.NewMandateSigner(cfg.Signing.KeyHex)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to initialize mandate signer: %w", err)
			}

			jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)
			agentRepo := repositories.NewAgentRepository(db)
			agentUsecase := usecases.NewAgentUsecase(agentRepo, signer, jwtService)
			return agentKeyRuntimeImpl{agents: agentUsecase}, sqlDB, nil
		},
		out: os.Stdout,
	}
}

func parseAgentID(agentID string) (uuid.UUID, error) {
	if agentID == "" {
		return uuid.Nil, fmt.Errorf("--agent-id is required when --name is not set")
	}
	return uuid.Parse(agentID)
}

func parseRiskTier(tier string) (entities.RiskTier, error) {
	switch entities.RiskTier(tier) {
	case entities.RiskTierLow, entities.RiskTierMedium, entities.RiskTierHigh:
		return entities.RiskTier(tier), nil
	}
	return "", fmt.Errorf("invalid tier: %s (allowed: LOW, MEDIUM, HIGH)", tier)
}

func runAgentKey(args []string, deps agentKeyDeps) error {
	if deps.loadEnv == nil {
		deps.loadEnv = func() error { return godotenv.Load() }
	}
	if deps.loadCfg == nil {
		deps.loadCfg = config.Load
	}
	if deps.prepare == nil {
		def := defaultAgentKeyDeps()
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = os.Stdout
	}

	fs := flag.NewFlagSet("agent-key", flag.ContinueOnError)
	nameFlag := fs.String("name", "", "create a new agent with this display name")
	tierFlag := fs.String("tier", "LOW", "risk tier for a new agent: LOW, MEDIUM or HIGH")
	agentIDFlag := fs.String("agent-id", "", "existing agent UUID to issue credentials for")
	tokenFlag := fs.Bool("token", false, "also print a short-lived bearer token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	runtime, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	ctx := context.Background()

	var agentID uuid.UUID
	if *nameFlag != "" {
		tier, err := parseRiskTier(*tierFlag)
		if err != nil {
			return err
		}
		agent, err := runtime.CreateAgent(ctx, *nameFlag, tier)
		if err != nil {
			return fmt.Errorf("failed creating agent: %w", err)
		}
		agentID = agent.ID
		_, _ = fmt.Fprintln(deps.out, "Created agent")
		_, _ = fmt.Fprintf(deps.out, "agent_id=%s\n", agent.ID.String())
		_, _ = fmt.Fprintf(deps.out, "name=%s\n", agent.Name)
		_, _ = fmt.Fprintf(deps.out, "risk_tier=%s\n", agent.RiskTier)
		_, _ = fmt.Fprintf(deps.out, "public_key=%s\n", agent.PublicKey)
	} else {
		agentID, err = parseAgentID(*agentIDFlag)
		if err != nil {
			return err
		}
	}

	apiKey, err := runtime.IssueAPIKey(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed issuing api key: %w", err)
	}

	// The plaintext key is printed exactly once; only its hash is stored.
	_, _ = fmt.Fprintln(deps.out, "Issued API key (store it now, it cannot be recovered)")
	_, _ = fmt.Fprintf(deps.out, "AGENT_ID=%s\n", agentID.String())
	_, _ = fmt.Fprintf(deps.out, "API_KEY=%s\n", apiKey)

	if *tokenFlag {
		token, err := runtime.IssueToken(ctx, agentID)
		if err != nil {
			return fmt.Errorf("failed issuing token: %w", err)
		}
		_, _ = fmt.Fprintf(deps.out, "BEARER_TOKEN=%s\n", token)
	}
	return nil
}

func main() {
	if err := runAgentKey(os.Args[1:], defaultAgentKeyDeps()); err != nil {
		log.Fatal(err)
	}
}
