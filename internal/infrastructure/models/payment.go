package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	MandateID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AgentID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Rail        string    `gorm:"type:varchar(10);not null"`
	RailReason  string    `gorm:"type:varchar(255)"`
	ProviderRef *string   `gorm:"type:varchar(255);index"`
	Amount      int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	// SettledMandateID is set to MandateID only when the payment settles.
	// The unique index is the portable form of the partial index
	// payments(mandate_id) WHERE status = 'SETTLED'.
	SettledMandateID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	SettledAt        *time.Time
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (Payment) TableName() string { return "payments" }
