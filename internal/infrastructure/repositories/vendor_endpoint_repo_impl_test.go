package repositories

import (
	"context"
	"testing"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestVendorEndpointRepository_EnabledLookup(t *testing.T) {
	db := newTestDB(t)
	createVendorEndpointTable(t, db)
	repo := NewVendorEndpointRepository(db)
	ctx := context.Background()

	enabled := &entities.VendorDirectEndpoint{
		ID:              uuid.New(),
		Vendor:          "api.vendor.example",
		EndpointURL:     "https://api.vendor.example/settle",
		VendorPublicKey: "vendorpub",
		Enabled:         true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, repo.Create(ctx, enabled))

	disabled := &entities.VendorDirectEndpoint{
		ID:          uuid.New(),
		Vendor:      "disabled.example",
		EndpointURL: "https://disabled.example/settle",
		Enabled:     false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(ctx, disabled))

	got, err := repo.GetEnabledByVendor(ctx, "api.vendor.example")
	require.NoError(t, err)
	require.Equal(t, enabled.ID, got.ID)
	require.Equal(t, "https://api.vendor.example/settle", got.EndpointURL)

	_, err = repo.GetEnabledByVendor(ctx, "disabled.example")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = repo.GetEnabledByVendor(ctx, "unknown.example")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	dup := &entities.VendorDirectEndpoint{
		ID:          uuid.New(),
		Vendor:      "api.vendor.example",
		EndpointURL: "https://elsewhere.example",
	}
	require.ErrorIs(t, repo.Create(ctx, dup), domainerrors.ErrAlreadyExists)
}
