package repositories

import (
	"context"
)

// UnitOfWork executes a function within one storage transaction. Repositories
// called with the derived context join the same transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
