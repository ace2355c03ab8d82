package models

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseIntent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	AgentID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Vendor      string    `gorm:"type:varchar(255);not null"`
	Amount      int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	Description string    `gorm:"type:text"`
	Metadata    string    `gorm:"type:jsonb;default:'{}'"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PurchaseIntent) TableName() string { return "purchase_intents" }
