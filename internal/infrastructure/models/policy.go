package models

import (
	"time"

	"github.com/google/uuid"
)

// Policy rows are immutable; supersession happens by inserting a greater
// version for the same agent.
type Policy struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	AgentID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_policies_agent_version,priority:1"`
	Version         int       `gorm:"not null;uniqueIndex:idx_policies_agent_version,priority:2"`
	VendorAllowlist string    `gorm:"type:jsonb;not null;default:'[]'"`
	AmountCap       int64     `gorm:"not null"`
	DailyCap        int64     `gorm:"not null"`
	RiskTier        string    `gorm:"type:varchar(10);not null"`
	DirectRail      bool      `gorm:"not null;default:false"`
	ExpiresAt       time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
}

func (Policy) TableName() string { return "policies" }
