package middleware

import (
	"context"
	"strings"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/interfaces/http/response"
	"agent-gate.backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// AgentIDHeader identifies the agent on API-key requests
	AgentIDHeader = "X-Agent-Id"
	// APIKeyHeader carries the agent's API key
	APIKeyHeader = "X-Api-Key"
	// AgentIDKey is the context key for the authenticated agent id
	AgentIDKey = "agentId"
)

// APIKeyVerifier checks a presented API key against the stored hash.
type APIKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, agentID uuid.UUID, key string) (*entities.Agent, error)
}

// AuthMiddleware authenticates the calling agent. Two paths are accepted:
// a bearer JWT, or the X-Agent-Id / X-Api-Key header pair checked against
// the agent's stored key hash.
func AuthMiddleware(jwtService *jwt.JWTService, verifier APIKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(APIKeyHeader); key != "" {
			agentID, err := uuid.Parse(c.GetHeader(AgentIDHeader))
			if err != nil {
				response.AbortError(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "X-Agent-Id header is required with X-Api-Key"))
				return
			}
			agent, err := verifier.VerifyAPIKey(c.Request.Context(), agentID, key)
			if err != nil {
				response.AbortError(c, err)
				return
			}
			c.Set(AgentIDKey, agent.ID)
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			response.AbortError(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "authentication required"))
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.AbortError(c, domainerrors.Unauthorized(domainerrors.CodeInvalidToken, "invalid authorization format, use: Bearer <token>"))
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			if err == jwt.ErrExpiredToken {
				response.AbortError(c, domainerrors.Unauthorized(domainerrors.CodeTokenExpired, "token has expired"))
				return
			}
			response.AbortError(c, domainerrors.Unauthorized(domainerrors.CodeInvalidToken, "invalid token"))
			return
		}

		c.Set(AgentIDKey, claims.AgentID)
		c.Next()
	}
}

// GetAgentID gets the authenticated agent id from context
func GetAgentID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(AgentIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
