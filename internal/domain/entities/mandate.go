package entities

import (
	"time"

	"github.com/google/uuid"
)

// MandateStatus represents mandate status
type MandateStatus string

const (
	MandateStatusActive    MandateStatus = "ACTIVE"
	MandateStatusExpired   MandateStatus = "EXPIRED"
	MandateStatusRevoked   MandateStatus = "REVOKED"
	MandateStatusExhausted MandateStatus = "EXHAUSTED"
)

// MaxMandateHours caps the requested mandate validity window.
const MaxMandateHours = 720

// Mandate is a signed authorization converting one intent into a spendable
// token. At most one active mandate exists per intent, and at most one
// settled payment per mandate.
type Mandate struct {
	ID        uuid.UUID     `json:"id"`
	IntentID  uuid.UUID     `json:"intentId"`
	AgentID   uuid.UUID     `json:"agentId"`
	PolicyID  uuid.UUID     `json:"policyId"`
	Vendor    string        `json:"vendor"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Signature string        `json:"signature"` // Ed25519 over canonical body digest, hex
	Hash      string        `json:"hash"`      // sha256:-prefixed canonical body digest
	PublicKey string        `json:"publicKey"` // signing pubkey at issue time, hex
	Status    MandateStatus `json:"status"`
	IssuedAt  time.Time     `json:"issuedAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// IsSpendable reports whether a payment may be created against the mandate.
func (m *Mandate) IsSpendable(now time.Time) bool {
	return m.Status == MandateStatusActive && m.ExpiresAt.After(now)
}

// CanonicalBody builds the map that is hashed and signed. Key order is
// normalized downstream; values must match the issue-time intent and policy.
func (m *Mandate) CanonicalBody() map[string]interface{} {
	return map[string]interface{}{
		"agent_id":   m.AgentID.String(),
		"amount":     m.Amount,
		"currency":   m.Currency,
		"expires_at": m.ExpiresAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		"intent_id":  m.IntentID.String(),
		"policy_id":  m.PolicyID.String(),
		"vendor":     m.Vendor,
	}
}

// CreateMandateInput is the request body for POST /mandates.
type CreateMandateInput struct {
	IntentID       string `json:"intentId" binding:"required,uuid"`
	ExpiresInHours int    `json:"expiresInHours" binding:"omitempty,min=1,max=720"`
}
