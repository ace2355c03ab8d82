package models

import (
	"time"
)

type IdempotencyRecord struct {
	Route              string `gorm:"type:varchar(255);primaryKey"`
	Key                string `gorm:"type:varchar(255);primaryKey"`
	RequestFingerprint string `gorm:"type:varchar(64);not null"`
	Status             string `gorm:"type:varchar(20);not null"`
	StatusCode         int
	ResponseBody       string    `gorm:"type:text"`
	CreatedAt          time.Time `gorm:"index"`
}

func (IdempotencyRecord) TableName() string { return "idempotency" }
