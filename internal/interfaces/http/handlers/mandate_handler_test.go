package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubMandateService struct {
	issued *entities.Mandate
	err    error
}

func (s *stubMandateService) Issue(ctx context.Context, agentID uuid.UUID, input *entities.CreateMandateInput) (*entities.Mandate, error) {
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now()
	s.issued = &entities.Mandate{
		ID:        uuid.New(),
		IntentID:  uuid.MustParse(input.IntentID),
		AgentID:   agentID,
		PolicyID:  uuid.New(),
		Vendor:    "acme",
		Amount:    199,
		Currency:  "USD",
		Signature: "sig",
		Hash:      "sha256:abc",
		PublicKey: "pk",
		Status:    entities.MandateStatusActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	return s.issued, nil
}

func (s *stubMandateService) Get(ctx context.Context, agentID, mandateID uuid.UUID) (*entities.Mandate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.issued == nil || s.issued.ID != mandateID {
		return nil, domainerrors.NotFound(domainerrors.CodeMandateNotFound, "mandate not found")
	}
	return s.issued, nil
}

func TestMandateHandler_Issue(t *testing.T) {
	svc := &stubMandateService{}
	h := NewMandateHandler(svc)
	agentID := uuid.New()
	r := newHandlerRouter(t, agentID, func(g *gin.RouterGroup) {
		g.POST("/mandates", h.Issue)
	})

	intentID := uuid.New()
	w := doJSON(r, http.MethodPost, "/api/v1/mandates",
		`{"intentId":"`+intentID.String()+`","expiresInHours":48}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ACTIVE"`)
	require.Contains(t, w.Body.String(), `"hash":"sha256:abc"`)
	require.Equal(t, agentID, svc.issued.AgentID)
}

func TestMandateHandler_IssueValidation(t *testing.T) {
	h := NewMandateHandler(&stubMandateService{})
	r := newHandlerRouter(t, uuid.New(), func(g *gin.RouterGroup) {
		g.POST("/mandates", h.Issue)
	})

	// intentId must be a UUID and expiresInHours is capped at 30 days.
	w := doJSON(r, http.MethodPost, "/api/v1/mandates", `{"intentId":"nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "VALIDATION_ERROR")

	w = doJSON(r, http.MethodPost, "/api/v1/mandates",
		`{"intentId":"`+uuid.New().String()+`","expiresInHours":800}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMandateHandler_IssueDenied(t *testing.T) {
	svc := &stubMandateService{err: domainerrors.PolicyViolation(domainerrors.CodeVendorNotAllowed, "vendor not in allowlist")}
	h := NewMandateHandler(svc)
	r := newHandlerRouter(t, uuid.New(), func(g *gin.RouterGroup) {
		g.POST("/mandates", h.Issue)
	})

	w := doJSON(r, http.MethodPost, "/api/v1/mandates",
		`{"intentId":"`+uuid.New().String()+`"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "VENDOR_NOT_ALLOWED")
}

func TestMandateHandler_Get(t *testing.T) {
	svc := &stubMandateService{}
	h := NewMandateHandler(svc)
	r := newHandlerRouter(t, uuid.New(), func(g *gin.RouterGroup) {
		g.POST("/mandates", h.Issue)
		g.GET("/mandates/:id", h.Get)
	})

	doJSON(r, http.MethodPost, "/api/v1/mandates",
		`{"intentId":"`+uuid.New().String()+`"}`)

	w := doJSON(r, http.MethodGet, "/api/v1/mandates/"+svc.issued.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), svc.issued.ID.String())

	w = doJSON(r, http.MethodGet, "/api/v1/mandates/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/mandates/"+uuid.New().String(), "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "MANDATE_NOT_FOUND")
}
