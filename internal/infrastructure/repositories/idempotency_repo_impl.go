package repositories

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"gorm.io/gorm"
)

// IdempotencyRepository implements at-most-once request capture
type IdempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// InsertInFlight claims (route, key). The composite primary key makes the
// insert the atomic claim.
func (r *IdempotencyRepository) InsertInFlight(ctx context.Context, record *entities.IdempotencyRecord) error {
	m := &models.IdempotencyRecord{
		Route:              record.Route,
		Key:                record.Key,
		RequestFingerprint: record.RequestFingerprint,
		Status:             string(entities.IdempotencyStatusInFlight),
		CreatedAt:          record.CreatedAt,
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	record.Status = entities.IdempotencyStatusInFlight
	record.CreatedAt = m.CreatedAt
	return nil
}

// Get gets the record for (route, key)
func (r *IdempotencyRepository) Get(ctx context.Context, route, key string) (*entities.IdempotencyRecord, error) {
	var m models.IdempotencyRecord
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("route = ? AND key = ?", route, key).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// TakeOver re-claims an abandoned IN_FLIGHT record. The compare-and-swap on
// created_at means only one of several racing retries wins.
func (r *IdempotencyRepository) TakeOver(ctx context.Context, route, key string, seenCreatedAt time.Time, fingerprint string) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.IdempotencyRecord{}).
		Where("route = ? AND key = ? AND status = ? AND created_at = ?",
			route, key, string(entities.IdempotencyStatusInFlight), seenCreatedAt).
		Updates(map[string]interface{}{
			"request_fingerprint": fingerprint,
			"created_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAlreadyExists
	}
	return nil
}

// Complete stores the terminal status code and captured body.
func (r *IdempotencyRepository) Complete(ctx context.Context, route, key string, statusCode int, responseBody string) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.IdempotencyRecord{}).
		Where("route = ? AND key = ?", route, key).
		Updates(map[string]interface{}{
			"status":        string(entities.IdempotencyStatusCompleted),
			"status_code":   statusCode,
			"response_body": responseBody,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Delete releases a claim, used when the handler fails before producing a
// capturable response.
func (r *IdempotencyRepository) Delete(ctx context.Context, route, key string) error {
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).
		Where("route = ? AND key = ?", route, key).
		Delete(&models.IdempotencyRecord{}).Error
}

// PurgeOlderThan removes records created before cutoff.
func (r *IdempotencyRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.IdempotencyRecord{})
	return result.RowsAffected, result.Error
}

func (r *IdempotencyRepository) toEntity(m *models.IdempotencyRecord) *entities.IdempotencyRecord {
	return &entities.IdempotencyRecord{
		Route:              m.Route,
		Key:                m.Key,
		RequestFingerprint: m.RequestFingerprint,
		Status:             entities.IdempotencyStatus(m.Status),
		StatusCode:         m.StatusCode,
		ResponseBody:       m.ResponseBody,
		CreatedAt:          m.CreatedAt,
	}
}
