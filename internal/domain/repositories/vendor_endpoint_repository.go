package repositories

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
)

// VendorEndpointRepository defines direct-rail vendor endpoint lookups.
type VendorEndpointRepository interface {
	Create(ctx context.Context, endpoint *entities.VendorDirectEndpoint) error
	// GetEnabledByVendor returns the enabled endpoint for a vendor, or
	// ErrNotFound when the vendor has none.
	GetEnabledByVendor(ctx context.Context, vendor string) (*entities.VendorDirectEndpoint, error)
}
