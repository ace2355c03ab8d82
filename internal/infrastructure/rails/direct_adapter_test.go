package rails

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/pkg/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSeedHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func directRequest(endpointURL string) *PaymentRequest {
	return &PaymentRequest{
		PaymentID: uuid.New(),
		MandateID: uuid.New(),
		AgentID:   uuid.New(),
		Vendor:    "v1",
		Amount:    150,
		Currency:  "USD",
		Endpoint: &entities.VendorDirectEndpoint{
			Vendor:      "v1",
			EndpointURL: endpointURL,
			Enabled:     true,
		},
	}
}

func TestDirectAdapter_SignedSettlement(t *testing.T) {
	signer, err := crypto.NewMandateSigner(testSeedHex)
	require.NoError(t, err)

	var gotIdemKey string
	var gotBody directSettleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdemKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(directSettleResponse{Status: "accepted", Reference: "ref_9"})
	}))
	defer srv.Close()

	adapter := NewDirectAdapter(signer, 5*time.Second)
	req := directRequest(srv.URL)
	result, err := adapter.Execute(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, ResultPending, result.Status)
	require.Equal(t, "ref_9", result.ProviderRef)

	// The mandate id is echoed as the vendor-side idempotency key.
	require.Equal(t, req.MandateID.String(), gotIdemKey)

	// The payload is canonical JSON and the signature verifies against the
	// advertised public key.
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody.Payload, &payload))
	require.Equal(t, req.MandateID.String(), payload["mandate_id"])
	require.True(t, strings.HasPrefix(gotBody.Hash, crypto.HashPrefix))
	require.True(t, crypto.VerifyMandateSignature(payload, gotBody.Signature, gotBody.PublicKey))
}

func TestDirectAdapter_VendorRejection(t *testing.T) {
	signer, err := crypto.NewMandateSigner(testSeedHex)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(directSettleResponse{Message: "mandate already consumed"})
	}))
	defer srv.Close()

	adapter := NewDirectAdapter(signer, 5*time.Second)
	_, err = adapter.Execute(context.Background(), directRequest(srv.URL))
	var appErr *domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, domainerrors.CodePaymentDeclined, appErr.Code)
}

func TestDirectAdapter_MissingEndpoint(t *testing.T) {
	signer, err := crypto.NewMandateSigner(testSeedHex)
	require.NoError(t, err)

	adapter := NewDirectAdapter(signer, 5*time.Second)
	req := directRequest("")
	req.Endpoint = nil
	_, err = adapter.Execute(context.Background(), req)
	require.Error(t, err)
}

func TestDirectAdapter_FallbackProviderRef(t *testing.T) {
	signer, err := crypto.NewMandateSigner(testSeedHex)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(directSettleResponse{Status: "settled"})
	}))
	defer srv.Close()

	adapter := NewDirectAdapter(signer, 5*time.Second)
	req := directRequest(srv.URL)
	result, err := adapter.Execute(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, ResultSettled, result.Status)
	require.Equal(t, req.MandateID.String(), result.ProviderRef)
}
