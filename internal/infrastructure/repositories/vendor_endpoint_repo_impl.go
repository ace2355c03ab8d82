package repositories

import (
	"context"
	"errors"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorEndpointRepository implements direct-rail endpoint lookups
type VendorEndpointRepository struct {
	db *gorm.DB
}

// NewVendorEndpointRepository creates a new vendor endpoint repository
func NewVendorEndpointRepository(db *gorm.DB) *VendorEndpointRepository {
	return &VendorEndpointRepository{db: db}
}

// Create registers a vendor's direct endpoint
func (r *VendorEndpointRepository) Create(ctx context.Context, endpoint *entities.VendorDirectEndpoint) error {
	if endpoint.ID == uuid.Nil {
		endpoint.ID = uuid.New()
	}
	m := &models.VendorDirectEndpoint{
		ID:              endpoint.ID,
		Vendor:          endpoint.Vendor,
		EndpointURL:     endpoint.EndpointURL,
		VendorPublicKey: endpoint.VendorPublicKey,
		Enabled:         endpoint.Enabled,
		CreatedAt:       endpoint.CreatedAt,
		UpdatedAt:       endpoint.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	endpoint.ID = m.ID
	return nil
}

// GetEnabledByVendor returns the enabled endpoint for a vendor.
func (r *VendorEndpointRepository) GetEnabledByVendor(ctx context.Context, vendor string) (*entities.VendorDirectEndpoint, error) {
	var m models.VendorDirectEndpoint
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("vendor = ? AND enabled = ?", vendor, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &entities.VendorDirectEndpoint{
		ID:              m.ID,
		Vendor:          m.Vendor,
		EndpointURL:     m.EndpointURL,
		VendorPublicKey: m.VendorPublicKey,
		Enabled:         m.Enabled,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}
