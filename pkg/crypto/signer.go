package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
)

var (
	ErrInvalidSigningKey = errors.New("signing key must be 32 bytes (64 hex chars)")
)

// MandateSigner holds the gateway's Ed25519 private key. The key is loaded
// once from configuration and never persisted or logged; the public key is
// derived lazily.
type MandateSigner struct {
	priv ed25519.PrivateKey

	pubOnce sync.Once
	pubHex  string
}

// SignResult is the attestation produced over a canonical mandate body.
type SignResult struct {
	Signature string `json:"signature"`
	Hash      string `json:"hash"`
	PublicKey string `json:"publicKey"`
}

// NewMandateSigner creates a signer from a 64-hex-char Ed25519 seed.
func NewMandateSigner(seedHex string) (*MandateSigner, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSigningKey
	}
	return &MandateSigner{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKeyHex returns the lower-case hex public key for the signing key.
func (s *MandateSigner) PublicKeyHex() string {
	s.pubOnce.Do(func() {
		s.pubHex = hex.EncodeToString(s.priv.Public().(ed25519.PublicKey))
	})
	return s.pubHex
}

// Sign hashes the canonical serialization of body and signs the raw digest
// bytes. Deterministic for a given key and body.
func (s *MandateSigner) Sign(body map[string]interface{}) (*SignResult, error) {
	hash, err := HashCanonical(body)
	if err != nil {
		return nil, err
	}

	digest, err := hex.DecodeString(strings.TrimPrefix(hash, HashPrefix))
	if err != nil {
		return nil, err
	}

	sig := ed25519.Sign(s.priv, digest)
	return &SignResult{
		Signature: hex.EncodeToString(sig),
		Hash:      hash,
		PublicKey: s.PublicKeyHex(),
	}, nil
}

// VerifyMandateSignature checks signatureHex against the canonical body and
// publicKeyHex. Returns false on any parse or crypto failure without
// distinguishing which.
func VerifyMandateSignature(body map[string]interface{}, signatureHex, publicKeyHex string) bool {
	hash, err := HashCanonical(body)
	if err != nil {
		return false
	}
	digest, err := hex.DecodeString(strings.TrimPrefix(hash, HashPrefix))
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
}
