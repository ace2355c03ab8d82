package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agent-gate.backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// newHandlerRouter builds a test engine that injects the given agent id the
// way AuthMiddleware would.
func newHandlerRouter(t *testing.T, agentID uuid.UUID, register func(*gin.RouterGroup)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/v1")
	if agentID != uuid.Nil {
		group.Use(func(c *gin.Context) {
			c.Set(middleware.AgentIDKey, agentID)
			c.Next()
		})
	}
	register(group)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSONWithHeader(r *gin.Engine, path, body, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
