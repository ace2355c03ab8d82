package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agent-gate.backend/internal/config"
	"agent-gate.backend/internal/domain/entities"
	"agent-gate.backend/internal/infrastructure/jobs"
	"agent-gate.backend/internal/infrastructure/rails"
	"agent-gate.backend/internal/infrastructure/repositories"
	"agent-gate.backend/internal/interfaces/http/handlers"
	"agent-gate.backend/internal/interfaces/http/middleware"
	"agent-gate.backend/internal/usecases"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/jwt"
	"agent-gate.backend/pkg/logger"
	"agent-gate.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	newSigner      = crypto.NewMandateSigner
	newReplayCache = redis.NewReplayCache
	runServer      = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB       = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize mandate signer. The seed comes from config only and is
	// never logged.
	signer, err := newSigner(cfg.Signing.KeyHex)
	if err != nil {
		return fmt.Errorf("failed to initialize mandate signer: %w", err)
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Initialize replay cache for idempotent response bodies
	replayCache, err := newReplayCache(cfg.Security.ReplayCacheKey)
	if err != nil {
		return fmt.Errorf("failed to initialize replay cache: %w", err)
	}

	// Initialize repositories
	agentRepo := repositories.NewAgentRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)
	intentRepo := repositories.NewIntentRepository(db)
	mandateRepo := repositories.NewMandateRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	receiptRepo := repositories.NewReceiptRepository(db)
	idempotencyRepo := repositories.NewIdempotencyRepository(db)
	deadLetterRepo := repositories.NewDeadLetterRepository(db)
	vendorEndpointRepo := repositories.NewVendorEndpointRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize rail routing and provider adapters
	railRouter := rails.NewRouter(vendorEndpointRepo, cfg.Rails.DirectMaxAmount)
	adapters := map[entities.Rail]rails.Adapter{
		entities.RailCard:   rails.NewCardAdapter(cfg.Rails.CardAppID, cfg.Rails.CardSecret),
		entities.RailDirect: rails.NewDirectAdapter(signer, cfg.Rails.DirectTimeout),
	}
	webhookSecrets := map[entities.Rail]string{
		entities.RailCard:   cfg.Rails.CardWebhookSecret,
		entities.RailDirect: cfg.Rails.DirectWebhookSecret,
	}

	// Initialize usecases
	agentUsecase := usecases.NewAgentUsecase(agentRepo, signer, jwtService)
	policyUsecase := usecases.NewPolicyUsecase(policyRepo, agentRepo, uow)
	intentUsecase := usecases.NewIntentUsecase(intentRepo, agentRepo)
	policyGate := usecases.NewPolicyGate(intentRepo, agentRepo, policyRepo, paymentRepo, mandateRepo)
	mandateUsecase := usecases.NewMandateUsecase(mandateRepo, intentRepo, policyGate, signer, uow)
	receiptUsecase := usecases.NewReceiptUsecase(receiptRepo, paymentRepo, mandateRepo, intentRepo)
	settlementUsecase := usecases.NewSettlementUsecase(paymentRepo, mandateRepo, intentRepo, receiptUsecase, uow)
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, mandateRepo, agentRepo, policyRepo, railRouter, adapters, settlementUsecase)
	webhookUsecase := usecases.NewWebhookUsecase(paymentRepo, idempotencyRepo, deadLetterRepo, settlementUsecase, webhookSecrets)

	// Initialize handlers
	intentHandler := handlers.NewIntentHandler(intentUsecase)
	mandateHandler := handlers.NewMandateHandler(mandateUsecase)
	paymentHandler := handlers.NewPaymentHandler(paymentUsecase)
	receiptHandler := handlers.NewReceiptHandler(receiptUsecase)
	policyHandler := handlers.NewPolicyHandler(policyUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase)
	healthHandler := handlers.NewHealthHandler(db)

	// Create middleware bound to shared state
	authMiddleware := middleware.AuthMiddleware(jwtService, agentUsecase)
	idempotencyMiddleware := middleware.IdempotencyMiddleware(idempotencyRepo, replayCache)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expiryJob := jobs.NewMandateExpiryJob(mandateRepo, 30*time.Second)
	go expiryJob.Start(ctx)
	purgeJob := jobs.NewIdempotencyPurgeJob(idempotencyRepo, time.Hour)
	go purgeJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerHealthRoute(r, healthHandler)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		intentHandler:         intentHandler,
		mandateHandler:        mandateHandler,
		paymentHandler:        paymentHandler,
		receiptHandler:        receiptHandler,
		policyHandler:         policyHandler,
		webhookHandler:        webhookHandler,
		authMiddleware:        authMiddleware,
		idempotencyMiddleware: idempotencyMiddleware,
	})

	// Print all registered routes for debugging
	log.Println("📋 Registered Routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		expiryJob.Stop()
		purgeJob.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 Agent-Gate Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
