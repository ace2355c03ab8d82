package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// CachedResponse is the captured outcome of an idempotent request. The
// relational store remains the source of truth; this cache only short-cuts
// replays of already-terminal requests.
type CachedResponse struct {
	Fingerprint string `json:"fingerprint"`
	StatusCode  int    `json:"statusCode"`
	Body        string `json:"body"`
}

// ReplayCache stores encrypted idempotency replay data in Redis. Response
// bodies can carry payment details, so they are sealed with AES-GCM before
// leaving the process.
type ReplayCache struct {
	encryptionKey []byte
}

var (
	setCacheValue = Set
	getCacheValue = Get
	delCacheValue = Del
)

// NewReplayCache creates a replay cache from a 64-hex-char key.
func NewReplayCache(encryptionKeyHex string) (*ReplayCache, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	return &ReplayCache{encryptionKey: key}, nil
}

// Put stores an encrypted captured response under the idempotency key.
func (c *ReplayCache) Put(ctx context.Context, route, key string, resp *CachedResponse, expiration time.Duration) error {
	jsonData, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	encrypted, err := c.encrypt(jsonData)
	if err != nil {
		return err
	}

	return setCacheValue(ctx, "idem:"+route+":"+key, encrypted, expiration)
}

// Get retrieves and decrypts a captured response, if present.
func (c *ReplayCache) Get(ctx context.Context, route, key string) (*CachedResponse, error) {
	encryptedStr, err := getCacheValue(ctx, "idem:"+route+":"+key)
	if err != nil {
		return nil, err
	}

	decrypted, err := c.decrypt(encryptedStr)
	if err != nil {
		return nil, err
	}

	var resp CachedResponse
	if err := json.Unmarshal(decrypted, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Delete removes a cached response.
func (c *ReplayCache) Delete(ctx context.Context, route, key string) error {
	return delCacheValue(ctx, "idem:"+route+":"+key)
}

func (c *ReplayCache) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

func (c *ReplayCache) decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(c.encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
