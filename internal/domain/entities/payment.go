package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusSettled    PaymentStatus = "SETTLED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSettled || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Rail identifies a settlement backend.
type Rail string

const (
	RailCard   Rail = "card"
	RailDirect Rail = "direct"
)

// Payment is one settlement attempt against a mandate. A mandate can carry
// multiple FAILED or CANCELLED payments but at most one SETTLED.
type Payment struct {
	ID          uuid.UUID     `json:"id"`
	MandateID   uuid.UUID     `json:"mandateId"`
	AgentID     uuid.UUID     `json:"agentId"`
	Rail        Rail          `json:"rail"`
	RailReason  string        `json:"railReason"` // router decision audit trail
	ProviderRef null.String   `json:"providerRef,omitempty"`
	Amount      int64         `json:"amount"`
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"status"`
	SettledAt   null.Time     `json:"settledAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ExecutePaymentInput is the request body for POST /payments/execute.
type ExecutePaymentInput struct {
	MandateID string                 `json:"mandateId" binding:"required,uuid"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ExecutePaymentResponse is the response for POST /payments/execute.
type ExecutePaymentResponse struct {
	PaymentID   uuid.UUID     `json:"paymentId"`
	Status      PaymentStatus `json:"status"`
	Rail        Rail          `json:"rail"`
	RailReason  string        `json:"railReason"`
	ProviderRef string        `json:"providerRef,omitempty"`
}
