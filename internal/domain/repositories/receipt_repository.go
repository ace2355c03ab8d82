package repositories

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// ReceiptRepository defines receipt chain data operations. Receipts are
// append-only; there are deliberately no update or delete operations.
type ReceiptRepository interface {
	// Create inserts a receipt. A unique constraint on (agent_id, chain_index)
	// rejects concurrent appends at the same index.
	Create(ctx context.Context, receipt *entities.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Receipt, error)
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entities.Receipt, error)
	// GetLatest returns the greatest-chain_index receipt for the agent, or
	// ErrNotFound when the chain is empty.
	GetLatest(ctx context.Context, agentID uuid.UUID) (*entities.Receipt, error)
	// ListByAgentAsc streams the full chain in ascending chain_index order.
	ListByAgentAsc(ctx context.Context, agentID uuid.UUID) ([]*entities.Receipt, error)
	// ListByAgentDesc pages receipts newest-link first.
	ListByAgentDesc(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]*entities.Receipt, int64, error)
}
