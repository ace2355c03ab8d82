package entities

import (
	"time"

	"github.com/google/uuid"
)

// AgentStatus represents agent lifecycle status
type AgentStatus string

const (
	AgentStatusActive    AgentStatus = "active"
	AgentStatusSuspended AgentStatus = "suspended"
	AgentStatusInactive  AgentStatus = "inactive"
)

// RiskTier classifies an agent for rail routing.
type RiskTier string

const (
	RiskTierLow    RiskTier = "LOW"
	RiskTierMedium RiskTier = "MEDIUM"
	RiskTierHigh   RiskTier = "HIGH"
)

// Agent is the autonomous client principal authorized to spend under policy.
// Status and risk tier are mutated by operators outside this service.
type Agent struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Status     AgentStatus `json:"status"`
	RiskTier   RiskTier    `json:"riskTier"`
	PublicKey  string      `json:"publicKey"` // gateway signing pubkey active at registration
	APIKeyHash string      `json:"-"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// IsActive reports whether the agent may spend.
func (a *Agent) IsActive() bool {
	return a.Status == AgentStatusActive
}
