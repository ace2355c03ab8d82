package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PolicyRepository implements policy data operations
type PolicyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Create inserts a new policy version. Versions are unique per agent.
func (r *PolicyRepository) Create(ctx context.Context, policy *entities.Policy) error {
	if policy.ID == uuid.Nil {
		policy.ID = uuid.New()
	}
	allowlist, err := json.Marshal(policy.VendorAllowlist)
	if err != nil {
		return err
	}
	m := &models.Policy{
		ID:              policy.ID,
		AgentID:         policy.AgentID,
		Version:         policy.Version,
		VendorAllowlist: string(allowlist),
		AmountCap:       policy.AmountCap,
		DailyCap:        policy.DailyCap,
		RiskTier:        string(policy.RiskTier),
		DirectRail:      policy.RailFlags.Direct,
		ExpiresAt:       policy.ExpiresAt,
		CreatedAt:       policy.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	policy.ID = m.ID
	return nil
}

// GetByID gets a policy by ID
func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Policy, error) {
	var m models.Policy
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m)
}

// GetActive returns the greatest-version unexpired policy for the agent.
func (r *PolicyRepository) GetActive(ctx context.Context, agentID uuid.UUID, now time.Time) (*entities.Policy, error) {
	return r.getActive(ctx, agentID, now, false)
}

// GetActiveForUpdate is GetActive with a row-level lock so the daily-cap
// check and the mandate write are linearized on the policy row.
func (r *PolicyRepository) GetActiveForUpdate(ctx context.Context, agentID uuid.UUID, now time.Time) (*entities.Policy, error) {
	return r.getActive(ctx, agentID, now, true)
}

func (r *PolicyRepository) getActive(ctx context.Context, agentID uuid.UUID, now time.Time, forUpdate bool) (*entities.Policy, error) {
	var m models.Policy
	db := GetDB(ctx, r.db).WithContext(ctx)
	// sqlite has no FOR UPDATE; its single-writer model already serializes
	// the check-and-write.
	if forUpdate && db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := db.Where("agent_id = ? AND expires_at > ?", agentID, now).
		Order("version DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m)
}

// GetGreatestVersion returns the highest policy version for the agent.
func (r *PolicyRepository) GetGreatestVersion(ctx context.Context, agentID uuid.UUID) (int, error) {
	var version int
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).Model(&models.Policy{}).
		Select("COALESCE(MAX(version), 0)").
		Where("agent_id = ?", agentID).
		Scan(&version).Error
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (r *PolicyRepository) toEntity(m *models.Policy) (*entities.Policy, error) {
	var allowlist []string
	if m.VendorAllowlist != "" {
		if err := json.Unmarshal([]byte(m.VendorAllowlist), &allowlist); err != nil {
			return nil, err
		}
	}
	return &entities.Policy{
		ID:              m.ID,
		AgentID:         m.AgentID,
		Version:         m.Version,
		VendorAllowlist: allowlist,
		AmountCap:       m.AmountCap,
		DailyCap:        m.DailyCap,
		RiskTier:        entities.RiskTier(m.RiskTier),
		RailFlags:       entities.RailFlags{Direct: m.DirectRail},
		ExpiresAt:       m.ExpiresAt,
		CreatedAt:       m.CreatedAt,
	}, nil
}
