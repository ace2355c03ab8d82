package entities

import (
	"time"
)

// IdempotencyStatus tracks whether a keyed request has completed.
type IdempotencyStatus string

const (
	IdempotencyStatusInFlight  IdempotencyStatus = "IN_FLIGHT"
	IdempotencyStatusCompleted IdempotencyStatus = "COMPLETED"
)

// InFlightTakeoverAge is how long an IN_FLIGHT record blocks retries before
// it is treated as abandoned and taken over.
const InFlightTakeoverAge = 30 * time.Second

// IdempotencyRetention is the minimum time a captured response stays
// replayable before the purge job may remove it.
const IdempotencyRetention = 24 * time.Hour

// IdempotencyRecord captures the at-most-once outcome of one (route, key)
// pair. A terminal record replays its status and body byte-for-byte.
type IdempotencyRecord struct {
	Route              string            `json:"route"`
	Key                string            `json:"key"`
	RequestFingerprint string            `json:"requestFingerprint"`
	Status             IdempotencyStatus `json:"status"`
	StatusCode         int               `json:"statusCode"`
	ResponseBody       string            `json:"responseBody"`
	CreatedAt          time.Time         `json:"createdAt"`
}
