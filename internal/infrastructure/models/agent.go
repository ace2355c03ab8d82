package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Agent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Status     string    `gorm:"type:varchar(20);not null;index"`
	RiskTier   string    `gorm:"type:varchar(10);not null"`
	PublicKey  string    `gorm:"type:varchar(64);not null"`
	APIKeyHash string    `gorm:"type:varchar(255)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Agent) TableName() string { return "agents" }
