package entities

import (
	"time"

	"github.com/google/uuid"
)

// RailFlags gates which settlement rails a policy permits.
type RailFlags struct {
	Direct bool `json:"direct"`
}

// Policy is a versioned, time-bounded authorization envelope for one agent.
// Policies are immutable once created; a new version supersedes the old, and
// only the greatest-version unexpired policy is ever consulted.
type Policy struct {
	ID              uuid.UUID `json:"id"`
	AgentID         uuid.UUID `json:"agentId"`
	Version         int       `json:"version"`
	VendorAllowlist []string  `json:"vendorAllowlist"`
	AmountCap       int64     `json:"amountCap"` // minor units
	DailyCap        int64     `json:"dailyCap"`  // minor units per UTC day
	RiskTier        RiskTier  `json:"riskTier"`
	RailFlags       RailFlags `json:"railFlags"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// IsActive reports whether the policy is unexpired at now.
func (p *Policy) IsActive(now time.Time) bool {
	return p.ExpiresAt.After(now)
}

// CreatePolicyInput is the request body for POST /policies. The version is
// allocated server-side.
type CreatePolicyInput struct {
	VendorAllowlist []string `json:"vendorAllowlist" binding:"required,min=1"`
	AmountCap       int64    `json:"amountCap" binding:"required,min=1"`
	DailyCap        int64    `json:"dailyCap" binding:"required,min=1"`
	RiskTier        RiskTier `json:"riskTier" binding:"required,oneof=LOW MEDIUM HIGH"`
	DirectRail      bool     `json:"directRail"`
	ExpiresInHours  int      `json:"expiresInHours" binding:"required,min=1"`
}

// AllowsVendor checks the vendor allowlist.
func (p *Policy) AllowsVendor(vendor string) bool {
	for _, v := range p.VendorAllowlist {
		if v == vendor {
			return true
		}
	}
	return false
}
