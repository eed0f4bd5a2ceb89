package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stockroom/storefront/internal/core/domain"
)

// MovementRepository appends stock movements to the audit table.
type MovementRepository struct {
	s *DB
}

func NewMovementRepository(s *DB) *MovementRepository {
	return &MovementRepository{s: s}
}

func (r *MovementRepository) Record(ctx context.Context, m domain.StockMovement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.s.db.ExecContext(ctx, r.s.rebind(`
		INSERT INTO stock_movements (id, item_id, kind, quantity, remaining, actor_id, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, m.ItemID, string(m.Kind), m.Quantity, m.Remaining, m.ActorID, toMicros(m.At),
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}
