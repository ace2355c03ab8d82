package handlers

import (
	"context"
	"net/http"
	"testing"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubPaymentService struct {
	resp    *entities.ExecutePaymentResponse
	payment *entities.Payment
	err     error
}

func (s *stubPaymentService) Execute(ctx context.Context, agentID uuid.UUID, input *entities.ExecutePaymentInput) (*entities.ExecutePaymentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubPaymentService) Get(ctx context.Context, agentID, paymentID uuid.UUID) (*entities.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func newPaymentRouter(t *testing.T, svc PaymentService) *gin.Engine {
	h := NewPaymentHandler(svc)
	return newHandlerRouter(t, uuid.New(), func(g *gin.RouterGroup) {
		g.POST("/payments/execute", h.Execute)
		g.GET("/payments/:id", h.Get)
	})
}

func TestPaymentHandler_Execute(t *testing.T) {
	svc := &stubPaymentService{resp: &entities.ExecutePaymentResponse{
		PaymentID:   uuid.New(),
		Status:      entities.PaymentStatusSettled,
		Rail:        entities.RailCard,
		RailReason:  "policy_direct_disabled",
		ProviderRef: "ord_1",
	}}
	r := newPaymentRouter(t, svc)

	w := doJSON(r, http.MethodPost, "/api/v1/payments/execute",
		`{"mandateId":"`+uuid.New().String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"SETTLED"`)
	require.Contains(t, w.Body.String(), `"railReason":"policy_direct_disabled"`)
}

func TestPaymentHandler_ExecuteBadBody(t *testing.T) {
	r := newPaymentRouter(t, &stubPaymentService{})

	w := doJSON(r, http.MethodPost, "/api/v1/payments/execute", `{"mandateId":"nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestPaymentHandler_ExecuteDeclined(t *testing.T) {
	r := newPaymentRouter(t, &stubPaymentService{
		err: domainerrors.PaymentDeclined("insufficient funds"),
	})

	w := doJSON(r, http.MethodPost, "/api/v1/payments/execute",
		`{"mandateId":"`+uuid.New().String()+`"}`)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	require.Contains(t, w.Body.String(), "PAYMENT_DECLINED")
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestPaymentHandler_ExecutePolicyDenial(t *testing.T) {
	r := newPaymentRouter(t, &stubPaymentService{
		err: domainerrors.PolicyViolation(domainerrors.CodeMandateExpired, "mandate has expired"),
	})

	w := doJSON(r, http.MethodPost, "/api/v1/payments/execute",
		`{"mandateId":"`+uuid.New().String()+`"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "MANDATE_EXPIRED")
}

func TestPaymentHandler_Get(t *testing.T) {
	payment := &entities.Payment{
		ID:       uuid.New(),
		Rail:     entities.RailCard,
		Amount:   199,
		Currency: "USD",
		Status:   entities.PaymentStatusProcessing,
	}
	r := newPaymentRouter(t, &stubPaymentService{payment: payment})

	w := doJSON(r, http.MethodGet, "/api/v1/payments/"+payment.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"PROCESSING"`)

	w = doJSON(r, http.MethodGet, "/api/v1/payments/xyz", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
