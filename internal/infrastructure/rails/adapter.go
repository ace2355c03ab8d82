package rails

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// ResultStatus is the adapter-level outcome of one settlement attempt.
// A pending result is valid and means the webhook will settle the payment.
type ResultStatus string

const (
	ResultSettled ResultStatus = "settled"
	ResultPending ResultStatus = "pending"
	ResultFailed  ResultStatus = "failed"
)

// PaymentRequest is the rail-agnostic settlement request.
type PaymentRequest struct {
	PaymentID uuid.UUID
	MandateID uuid.UUID
	AgentID   uuid.UUID
	Vendor    string
	// Amount in minor units. Adapters that speak major units convert at
	// the wire boundary only.
	Amount   int64
	Currency string
	Metadata map[string]interface{}
	// Endpoint is set by the router for the direct rail.
	Endpoint *entities.VendorDirectEndpoint
}

// PaymentResult is what an adapter reports back.
type PaymentResult struct {
	Success     bool
	Status      ResultStatus
	ProviderRef string
	Error       string
	Metadata    map[string]interface{}
}

// Adapter executes a settlement attempt on one rail.
type Adapter interface {
	Rail() entities.Rail
	Execute(ctx context.Context, req *PaymentRequest) (*PaymentResult, error)
}
