package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSeedHex = "4f2a1c8d9b3e6f051a7c2d8e4b9f0a3c5d7e1f2a4b6c8d0e9f1a3b5c7d9e0f2a"

func TestNewMandateSigner_KeyValidation(t *testing.T) {
	_, err := NewMandateSigner("")
	assert.ErrorIs(t, err, ErrInvalidSigningKey)

	_, err = NewMandateSigner("zz")
	assert.ErrorIs(t, err, ErrInvalidSigningKey)

	_, err = NewMandateSigner("abcd")
	assert.ErrorIs(t, err, ErrInvalidSigningKey)

	s, err := NewMandateSigner(testSeedHex)
	assert.NoError(t, err)
	assert.Len(t, s.PublicKeyHex(), 64)
}

func TestMandateSigner_SignAndVerify(t *testing.T) {
	s, err := NewMandateSigner(testSeedHex)
	assert.NoError(t, err)

	body := map[string]interface{}{
		"vendor":   "acme",
		"amount":   int64(120),
		"currency": "USD",
	}

	res, err := s.Sign(body)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Hash, HashPrefix))
	assert.Equal(t, s.PublicKeyHex(), res.PublicKey)

	assert.True(t, VerifyMandateSignature(body, res.Signature, res.PublicKey))

	// Same key and body always produce the same attestation.
	res2, err := s.Sign(body)
	assert.NoError(t, err)
	assert.Equal(t, res.Signature, res2.Signature)
	assert.Equal(t, res.Hash, res2.Hash)
}

func TestVerifyMandateSignature_Rejections(t *testing.T) {
	s, err := NewMandateSigner(testSeedHex)
	assert.NoError(t, err)

	body := map[string]interface{}{"vendor": "acme", "amount": int64(120)}
	res, err := s.Sign(body)
	assert.NoError(t, err)

	tampered := map[string]interface{}{"vendor": "acme", "amount": int64(999)}
	assert.False(t, VerifyMandateSignature(tampered, res.Signature, res.PublicKey))

	assert.False(t, VerifyMandateSignature(body, "deadbeef", res.PublicKey))
	assert.False(t, VerifyMandateSignature(body, res.Signature, "not-hex"))

	other, err := NewMandateSigner(strings.Repeat("11", 32))
	assert.NoError(t, err)
	assert.False(t, VerifyMandateSignature(body, res.Signature, other.PublicKeyHex()))
}
