package rails

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/logger"
	"go.uber.org/zap"
)

// DirectAdapter settles by POSTing an Ed25519-signed canonical body straight
// to the vendor's registered endpoint. The mandate id doubles as the
// idempotency key the vendor dedups on.
type DirectAdapter struct {
	signer *crypto.MandateSigner
	client *http.Client
}

// NewDirectAdapter creates a direct rail adapter. timeout bounds every
// vendor call.
func NewDirectAdapter(signer *crypto.MandateSigner, timeout time.Duration) *DirectAdapter {
	return &DirectAdapter{
		signer: signer,
		client: &http.Client{Timeout: timeout},
	}
}

func (a *DirectAdapter) Rail() entities.Rail { return entities.RailDirect }

type directSettleRequest struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
	Hash      string          `json:"hash"`
	PublicKey string          `json:"publicKey"`
}

type directSettleResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// Execute signs the settlement payload and delivers it to the vendor.
func (a *DirectAdapter) Execute(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if req.Endpoint == nil || req.Endpoint.EndpointURL == "" {
		return nil, domainerrors.InternalError(fmt.Errorf("direct rail selected without a vendor endpoint"))
	}

	payload := map[string]interface{}{
		"amount":     req.Amount,
		"currency":   req.Currency,
		"mandate_id": req.MandateID.String(),
		"payment_id": req.PaymentID.String(),
		"vendor":     req.Vendor,
	}

	signed, err := a.signer.Sign(payload)
	if err != nil {
		return nil, domainerrors.InternalError(fmt.Errorf("sign direct settlement: %w", err))
	}
	canonical, err := crypto.CanonicalJSON(payload)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	body, err := json.Marshal(directSettleRequest{
		Payload:   canonical,
		Signature: signed.Signature,
		Hash:      signed.Hash,
		PublicKey: signed.PublicKey,
	})
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	resp, err := doWithRetry(ctx, a.client, http.MethodPost, req.Endpoint.EndpointURL, body, func(r *http.Request) {
		r.Header.Set("Idempotency-Key", req.MandateID.String())
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, domainerrors.TimeoutError(ctx.Err())
		}
		return nil, domainerrors.ProviderError(fmt.Errorf("direct rail unavailable: %w", err))
	}

	raw := drainBody(resp)
	var parsed directSettleResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, domainerrors.ProviderError(fmt.Errorf("direct rail returned malformed response: %w", err))
	}

	if resp.StatusCode >= 400 {
		msg := parsed.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, domainerrors.PaymentDeclined(msg)
	}

	logger.Info(ctx, "direct rail executed",
		zap.String("vendor", req.Vendor),
		zap.String("reference", parsed.Reference),
		zap.String("provider_status", parsed.Status))

	return directResult(&parsed, req), nil
}

func directResult(r *directSettleResponse, req *PaymentRequest) *PaymentResult {
	result := &PaymentResult{ProviderRef: r.Reference}
	if result.ProviderRef == "" {
		result.ProviderRef = req.MandateID.String()
	}
	switch strings.ToLower(r.Status) {
	case "settled", "completed":
		result.Success = true
		result.Status = ResultSettled
	case "accepted", "pending":
		result.Success = true
		result.Status = ResultPending
	default:
		result.Status = ResultFailed
		result.Error = r.Message
	}
	return result
}
