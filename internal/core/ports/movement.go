package ports

import (
	"context"

	"github.com/stockroom/storefront/internal/core/domain"
)

// MovementSink receives committed stock movements.
type MovementSink interface {
	Record(ctx context.Context, m domain.StockMovement) error
}
