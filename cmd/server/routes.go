package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agent-gate.backend/internal/interfaces/http/handlers"
	"agent-gate.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	intentHandler         *handlers.IntentHandler
	mandateHandler        *handlers.MandateHandler
	paymentHandler        *handlers.PaymentHandler
	receiptHandler        *handlers.ReceiptHandler
	policyHandler         *handlers.PolicyHandler
	webhookHandler        *handlers.WebhookHandler
	authMiddleware        gin.HandlerFunc
	idempotencyMiddleware gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Webhook routes (provider-signed, no agent auth). Signature
		// verification and delivery dedup happen inside the usecase.
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/:rail", d.webhookHandler.Receive)
		}

		// Purchase intent routes (protected)
		intents := v1.Group("/purchase-intents")
		intents.Use(d.authMiddleware)
		{
			intents.POST("", d.idempotencyMiddleware, d.intentHandler.Create)
			intents.GET("/:id", d.intentHandler.Get)
		}

		// Mandate routes (protected)
		mandates := v1.Group("/mandates")
		mandates.Use(d.authMiddleware)
		{
			mandates.POST("", d.idempotencyMiddleware, d.mandateHandler.Issue)
			mandates.GET("/:id", d.mandateHandler.Get)
		}

		// Payment routes (protected)
		payments := v1.Group("/payments")
		payments.Use(d.authMiddleware)
		{
			payments.POST("/execute", d.idempotencyMiddleware, d.paymentHandler.Execute)
			payments.GET("/:id", d.paymentHandler.Get)
		}

		// Policy routes (protected)
		policies := v1.Group("/policies")
		policies.Use(d.authMiddleware)
		{
			policies.POST("", d.policyHandler.Create)
			policies.GET("/active", d.policyHandler.GetActive)
		}

		// Receipt routes (protected)
		receipts := v1.Group("/receipts")
		receipts.Use(d.authMiddleware)
		{
			receipts.GET("", d.receiptHandler.List)
			receipts.GET("/verify", d.receiptHandler.Verify)
			receipts.GET("/:id", d.receiptHandler.Get)
		}
	}
}

func applyCORSMiddleware(r *gin.Engine, allowedOrigins string) {
	origins := []string{"*"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}
	r.Use(middleware.CORSMiddleware(origins))
}

func registerHealthRoute(r *gin.Engine, h *handlers.HealthHandler) {
	r.GET("/health", h.Check)
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
