package models

import (
	"time"

	"github.com/google/uuid"
)

// Receipt rows are append-only. The (agent_id, chain_index) unique index is
// the append lock: concurrent appenders conflict there and retry.
type Receipt struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	PaymentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	AgentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipts_agent_chain,priority:1"`
	ChainIndex int64     `gorm:"not null;uniqueIndex:idx_receipts_agent_chain,priority:2"`
	PrevHash   *string   `gorm:"type:varchar(80)"`
	Hash       string    `gorm:"type:varchar(80);not null"`
	CreatedAt  time.Time
}

func (Receipt) TableName() string { return "receipts" }
