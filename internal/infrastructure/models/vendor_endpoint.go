package models

import (
	"time"

	"github.com/google/uuid"
)

type VendorDirectEndpoint struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Vendor          string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	EndpointURL     string    `gorm:"type:varchar(1024);not null"`
	VendorPublicKey string    `gorm:"type:varchar(64)"`
	Enabled         bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (VendorDirectEndpoint) TableName() string { return "vendor_direct_endpoints" }
