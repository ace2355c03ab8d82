package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// HashPrefix tags every canonical-body digest produced by the gateway.
const HashPrefix = "sha256:"

// CanonicalTimeLayout renders timestamps as UTC with millisecond precision,
// e.g. 2026-01-02T15:04:05.123Z. All canonical bodies use this layout.
const CanonicalTimeLayout = "2006-01-02T15:04:05.000Z"

// CanonicalTime formats t for inclusion in a canonical body.
func CanonicalTime(t time.Time) string {
	return t.UTC().Format(CanonicalTimeLayout)
}

// CanonicalJSON serializes a flat map as JSON with lexicographically ordered
// keys and no whitespace. Key order in the input map is irrelevant; two maps
// with equal contents always produce identical bytes.
func CanonicalJSON(body map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalNoEscape(body[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HashCanonical computes the prefixed SHA-256 digest of the canonical
// serialization of body.
func HashCanonical(body map[string]interface{}) (string, error) {
	canonical, err := CanonicalJSON(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return HashPrefix + hex.EncodeToString(sum[:]), nil
}

// Fingerprint returns the hex SHA-256 of a request body after whitespace
// normalization, so that semantically identical retries fingerprint equally.
func Fingerprint(body []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err == nil {
		body = compact.Bytes()
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// marshalNoEscape marshals without HTML escaping, so vendor names containing
// & or < hash identically across implementations.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
