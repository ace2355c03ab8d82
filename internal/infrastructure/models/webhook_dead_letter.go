package models

import (
	"time"

	"github.com/google/uuid"
)

type WebhookDeadLetter struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Rail      string    `gorm:"type:varchar(10);not null;index"`
	EventID   string    `gorm:"type:varchar(255);not null"`
	EventType string    `gorm:"type:varchar(50);not null"`
	Payload   string    `gorm:"type:text"`
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (WebhookDeadLetter) TableName() string { return "webhook_dead_letters" }
