package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance bounds the accepted clock skew between the provider's
// signing timestamp and our wall clock.
const SignatureTolerance = 5 * time.Minute

var (
	ErrMalformedSignature = errors.New("malformed webhook signature header")
	ErrStaleSignature     = errors.New("webhook signature timestamp outside tolerance")
	ErrBadSignature       = errors.New("webhook signature mismatch")
)

// VerifyWebhookSignature validates a header of the form
// "t=<unix-seconds>,v1=<hex-hmac>" against HMAC-SHA256(secret, t || "." || body).
func VerifyWebhookSignature(secret, header string, body []byte, now time.Time) error {
	var tsStr, mac string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			tsStr = kv[1]
		case "v1":
			mac = kv[1]
		}
	}
	if tsStr == "" || mac == "" {
		return ErrMalformedSignature
	}

	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return ErrMalformedSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > SignatureTolerance || age < -SignatureTolerance {
		return ErrStaleSignature
	}

	expected := ComputeWebhookSignature(secret, ts, body)
	if !hmac.Equal([]byte(expected), []byte(mac)) {
		return ErrBadSignature
	}
	return nil
}

// ComputeWebhookSignature produces the hex HMAC for a timestamp and body.
func ComputeWebhookSignature(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader renders the header value the verifier expects.
func SignatureHeader(secret string, ts int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeWebhookSignature(secret, ts, body))
}
