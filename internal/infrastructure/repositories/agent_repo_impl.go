package repositories

import (
	"context"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentRepository implements agent data operations
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// Create creates a new agent
func (r *AgentRepository) Create(ctx context.Context, agent *entities.Agent) error {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	m := &models.Agent{
		ID:         agent.ID,
		Name:       agent.Name,
		Status:     string(agent.Status),
		RiskTier:   string(agent.RiskTier),
		PublicKey:  agent.PublicKey,
		APIKeyHash: agent.APIKeyHash,
		CreatedAt:  agent.CreatedAt,
		UpdatedAt:  agent.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	agent.ID = m.ID
	return nil
}

// GetByID gets an agent by ID
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error) {
	var m models.Agent
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// UpdateAPIKeyHash replaces the stored API key hash for an agent.
func (r *AgentRepository) UpdateAPIKeyHash(ctx context.Context, id uuid.UUID, hash string) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"api_key_hash": hash,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *AgentRepository) toEntity(m *models.Agent) *entities.Agent {
	return &entities.Agent{
		ID:         m.ID,
		Name:       m.Name,
		Status:     entities.AgentStatus(m.Status),
		RiskTier:   entities.RiskTier(m.RiskTier),
		PublicKey:  m.PublicKey,
		APIKeyHash: m.APIKeyHash,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
