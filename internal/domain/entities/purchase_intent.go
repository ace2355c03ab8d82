package entities

import (
	"time"

	"github.com/google/uuid"
)

// IntentStatus represents purchase intent status
type IntentStatus string

const (
	IntentStatusPending  IntentStatus = "PENDING"
	IntentStatusApproved IntentStatus = "APPROVED"
	IntentStatusRejected IntentStatus = "REJECTED"
	IntentStatusExecuted IntentStatus = "EXECUTED"
)

// PurchaseIntent is a proposed spend, pre-authorization. Creating one is the
// only way a spend enters the system.
type PurchaseIntent struct {
	ID          uuid.UUID    `json:"id"`
	AgentID     uuid.UUID    `json:"agentId"`
	Vendor      string       `json:"vendor"`
	Amount      int64        `json:"amount"` // minor units, non-negative
	Currency    string       `json:"currency"`
	Description string       `json:"description"`
	Metadata    string       `json:"metadata,omitempty"` // opaque JSON blob, kept for audit
	Status      IntentStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CreateIntentInput is the request body for POST /purchase-intents.
type CreateIntentInput struct {
	Vendor      string                 `json:"vendor" binding:"required"`
	Amount      int64                  `json:"amount" binding:"required,min=1"`
	Currency    string                 `json:"currency" binding:"required,len=3"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
