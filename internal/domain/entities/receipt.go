package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Receipt is one link of the per-agent hash chain. Receipts are append-only
// and never mutated or deleted. The first receipt for an agent has a null
// prev_hash and chain index 0; each subsequent receipt links to the previous
// hash and increments the index by one.
type Receipt struct {
	ID         uuid.UUID   `json:"id"`
	PaymentID  uuid.UUID   `json:"paymentId"`
	AgentID    uuid.UUID   `json:"agentId"`
	PrevHash   null.String `json:"prevHash,omitempty"`
	Hash       string      `json:"hash"`
	ChainIndex int64       `json:"chainIndex"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// ReceiptRow is the joined view returned by GET /receipts/:id, tying the
// receipt to the payment and intent it attests.
type ReceiptRow struct {
	Receipt *Receipt        `json:"receipt"`
	Payment *Payment        `json:"payment"`
	Mandate *Mandate        `json:"mandate"`
	Intent  *PurchaseIntent `json:"intent"`
}

// ChainVerification is the outcome of walking an agent's receipt chain.
type ChainVerification struct {
	Valid    bool  `json:"valid"`
	Checked  int64 `json:"checked"`
	BrokenAt int64 `json:"brokenAt,omitempty"` // first discrepant chain index
}
