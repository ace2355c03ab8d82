package models

import (
	"time"

	"github.com/google/uuid"
)

type Mandate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	IntentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	AgentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	PolicyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Vendor    string    `gorm:"type:varchar(255);not null"`
	Amount    int64     `gorm:"not null"`
	Currency  string    `gorm:"type:varchar(3);not null"`
	Signature string    `gorm:"type:varchar(128);not null"`
	Hash      string    `gorm:"type:varchar(80);not null"`
	PublicKey string    `gorm:"type:varchar(64);not null"`
	Status    string    `gorm:"type:varchar(20);not null;index"`
	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Mandate) TableName() string { return "mandates" }
