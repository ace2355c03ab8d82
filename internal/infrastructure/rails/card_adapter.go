package rails

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/pkg/logger"
	"go.uber.org/zap"
)

const (
	cardSandboxBaseURL    = "https://sandbox.cardrail.example/v2"
	cardProductionBaseURL = "https://api.cardrail.example/v2"
	cardTimeout           = 10 * time.Second
)

// CardAdapter settles through the card processor with a 2-phase flow:
// create an order, then execute on the returned session id. Amounts go over
// the wire in major units; everything internal stays minor-unit integers.
type CardAdapter struct {
	appID   string
	secret  string
	baseURL string
	client  *http.Client
}

// NewCardAdapter creates a card rail adapter. Sandbox vs production is
// inferred from the app id prefix.
func NewCardAdapter(appID, secret string) *CardAdapter {
	baseURL := cardProductionBaseURL
	if strings.HasPrefix(appID, "TEST") {
		baseURL = cardSandboxBaseURL
	}
	return &CardAdapter{
		appID:   appID,
		secret:  secret,
		baseURL: baseURL,
		client:  &http.Client{Timeout: cardTimeout},
	}
}

// SetBaseURL overrides the inferred provider URL. Used by tests.
func (a *CardAdapter) SetBaseURL(url string) { a.baseURL = strings.TrimRight(url, "/") }

func (a *CardAdapter) Rail() entities.Rail { return entities.RailCard }

type cardCustomer struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

type cardCreateOrderRequest struct {
	AppID       string       `json:"app_id"`
	Amount      string       `json:"amount"`
	Currency    string       `json:"currency"`
	ReferenceID string       `json:"reference_id"`
	Customer    cardCustomer `json:"customer"`
}

type cardOrderResponse struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type cardExecuteRequest struct {
	AppID     string `json:"app_id"`
	SessionID string `json:"session_id"`
}

// Execute runs the 2-phase order flow.
func (a *CardAdapter) Execute(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	customer, err := customerFromMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	order, err := a.createOrder(ctx, req, customer)
	if err != nil {
		return nil, err
	}

	result, err := a.executeOrder(ctx, order.SessionID)
	if err != nil {
		return nil, err
	}
	if result.OrderID == "" {
		result.OrderID = order.OrderID
	}

	logger.Info(ctx, "card rail executed",
		zap.String("order_id", result.OrderID),
		zap.String("provider_status", result.Status))

	return cardResult(result), nil
}

func (a *CardAdapter) createOrder(ctx context.Context, req *PaymentRequest, customer cardCustomer) (*cardOrderResponse, error) {
	body := cardCreateOrderRequest{
		AppID:       a.appID,
		Amount:      majorUnits(req.Amount),
		Currency:    req.Currency,
		ReferenceID: req.PaymentID.String(),
		Customer:    customer,
	}
	return a.post(ctx, "/orders", body)
}

func (a *CardAdapter) executeOrder(ctx context.Context, sessionID string) (*cardOrderResponse, error) {
	body := cardExecuteRequest{AppID: a.appID, SessionID: sessionID}
	return a.post(ctx, "/orders/execute", body)
}

func (a *CardAdapter) post(ctx context.Context, path string, body interface{}) (*cardOrderResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	resp, err := doWithRetry(ctx, a.client, http.MethodPost, a.baseURL+path, buf, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+a.secret)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, domainerrors.TimeoutError(ctx.Err())
		}
		return nil, domainerrors.ProviderError(fmt.Errorf("card rail unavailable: %w", err))
	}

	raw := drainBody(resp)
	var parsed cardOrderResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, domainerrors.ProviderError(fmt.Errorf("card rail returned malformed response: %w", err))
	}

	// 4xx is terminal: surfaced as a declined result, never retried.
	if resp.StatusCode >= 400 {
		msg := parsed.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, domainerrors.PaymentDeclined(msg)
	}
	return &parsed, nil
}

func cardResult(r *cardOrderResponse) *PaymentResult {
	result := &PaymentResult{ProviderRef: r.OrderID}
	switch strings.ToUpper(r.Status) {
	case "PAID", "SETTLED":
		result.Success = true
		result.Status = ResultSettled
	case "PENDING", "CREATED", "REQUIRES_ACTION":
		result.Success = true
		result.Status = ResultPending
	default:
		result.Status = ResultFailed
		result.Error = r.Message
	}
	return result
}

// customerFromMetadata pulls the contact details the processor requires on
// every order.
func customerFromMetadata(metadata map[string]interface{}) (cardCustomer, error) {
	c := cardCustomer{
		Email: metadataString(metadata, "customer_email"),
		Phone: metadataString(metadata, "customer_phone"),
		Name:  metadataString(metadata, "customer_name"),
	}
	if c.Email == "" || c.Phone == "" {
		return c, domainerrors.BadRequest(domainerrors.CodeValidationError,
			"customer_email and customer_phone metadata are required for the card rail")
	}
	return c, nil
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

// majorUnits renders a minor-unit integer amount as a decimal string with
// two fractional digits.
func majorUnits(amount int64) string {
	return strconv.FormatInt(amount/100, 10) + "." + fmt.Sprintf("%02d", amount%100)
}
