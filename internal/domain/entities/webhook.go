package entities

import (
	"time"

	"github.com/google/uuid"
)

// Webhook event types the ingestor acts on. Anything else is acknowledged
// and ignored.
const (
	WebhookEventPaymentSucceeded = "PAYMENT_SUCCEEDED"
	WebhookEventPaymentFailed    = "PAYMENT_FAILED"
	WebhookEventPaymentCancelled = "PAYMENT_CANCELLED"
)

// WebhookDeadLetter records a validly-signed webhook whose downstream
// processing failed. The provider is still acknowledged with 200; these rows
// are reconciled out of band.
type WebhookDeadLetter struct {
	ID        uuid.UUID `json:"id"`
	Rail      Rail      `json:"rail"`
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Payload   string    `json:"payload"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"createdAt"`
}

// WebhookAck is the body returned to providers.
type WebhookAck struct {
	Received  bool `json:"received"`
	Processed bool `json:"processed"`
}
