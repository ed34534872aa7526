package repository

import (
	"context"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// CostAuditRepository bitácora append-only de cambios de costo promedio.
type CostAuditRepository interface {
	Append(ctx context.Context, entry *entity.CostAuditEntry) error
	ListByMovement(ctx context.Context, movementID string) ([]*entity.CostAuditEntry, error)
}
