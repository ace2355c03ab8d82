package entities

import (
	"time"

	"github.com/google/uuid"
)

// VendorDirectEndpoint is per-vendor configuration enabling the direct rail:
// the gateway POSTs signed settlement requests straight to the vendor.
type VendorDirectEndpoint struct {
	ID              uuid.UUID `json:"id"`
	Vendor          string    `json:"vendor"`
	EndpointURL     string    `json:"endpointUrl"`
	VendorPublicKey string    `json:"vendorPublicKey"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
