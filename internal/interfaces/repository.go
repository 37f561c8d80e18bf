package interfaces

import (
	"context"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// LedgerRepository is the optional durable copy of the order history
type LedgerRepository interface {
	LoadAll(ctx context.Context) ([]domain.Order, error)
	Save(ctx context.Context, order domain.Order) error
	UpdateStatus(ctx context.Context, orderID string, status domain.Status, changedBy string) error
}
