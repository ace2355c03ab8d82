package repositories

import (
	"context"
	"time"

	"agent-gate.backend/internal/domain/entities"
)

// IdempotencyRepository defines at-most-once request capture operations.
type IdempotencyRepository interface {
	// InsertInFlight atomically claims (route, key). Returns ErrAlreadyExists
	// when another caller holds or completed the pair.
	InsertInFlight(ctx context.Context, record *entities.IdempotencyRecord) error
	Get(ctx context.Context, route, key string) (*entities.IdempotencyRecord, error)
	// TakeOver re-claims an abandoned IN_FLIGHT record by compare-and-swap on
	// its created_at. Returns ErrAlreadyExists if the swap loses.
	TakeOver(ctx context.Context, route, key string, seenCreatedAt time.Time, fingerprint string) error
	// Complete stores the terminal status code and captured body.
	Complete(ctx context.Context, route, key string, statusCode int, responseBody string) error
	Delete(ctx context.Context, route, key string) error
	// PurgeOlderThan removes records past retention and returns the count.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
