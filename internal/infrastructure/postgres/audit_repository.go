package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

var (
	_ repository.CostAuditRepository  = (*CostAuditRepo)(nil)
	_ repository.AuditEventRepository = (*AuditEventRepo)(nil)
)

// CostAuditRepo bitácora append-only de cambios de costo promedio.
type CostAuditRepo struct {
	q Querier
}

// NewCostAuditRepository construye el adaptador.
func NewCostAuditRepository(q Querier) *CostAuditRepo {
	return &CostAuditRepo{q: q}
}

// Append inserta una entrada (misma transacción que la publicación).
func (r *CostAuditRepo) Append(ctx context.Context, e *entity.CostAuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO cost_audit_log (id, balance_id, item_id, warehouse_id, movement_id, user_id,
			cost_before, cost_after, quantity_before, quantity_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, nullIfEmpty(e.BalanceID), e.ItemID, e.WarehouseID, e.MovementID, e.UserID,
		e.CostBefore, e.CostAfter, e.QuantityBefore, e.QuantityAfter, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append cost audit: %w", err)
	}
	return nil
}

// ListByMovement entradas generadas por un documento, en orden de inserción.
func (r *CostAuditRepo) ListByMovement(ctx context.Context, movementID string) ([]*entity.CostAuditEntry, error) {
	var out []*entity.CostAuditEntry
	err := pgxscan.Select(ctx, r.q, &out, `
		SELECT id, COALESCE(balance_id, '') AS balance_id, item_id, warehouse_id, movement_id, user_id,
			cost_before, cost_after, quantity_before, quantity_after, created_at
		FROM cost_audit_log WHERE movement_id = $1
		ORDER BY created_at, id`, movementID)
	if err != nil {
		return nil, fmt.Errorf("list cost audit: %w", err)
	}
	return out, nil
}

// AuditEventRepo eventos de auditoría de dominio.
type AuditEventRepo struct {
	q Querier
}

// NewAuditEventRepository construye el adaptador.
func NewAuditEventRepository(q Querier) *AuditEventRepo {
	return &AuditEventRepo{q: q}
}

// Append inserta el evento; meta se guarda como JSONB.
func (r *AuditEventRepo) Append(ctx context.Context, ev *entity.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	meta := ev.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_events (id, entity, entity_id, action, user_id, meta, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.Entity, ev.EntityID, ev.Action, ev.UserID, meta, ev.At,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByEntity eventos de una entidad en orden cronológico.
func (r *AuditEventRepo) ListByEntity(ctx context.Context, entityName, entityID string) ([]*entity.AuditEvent, error) {
	var out []*entity.AuditEvent
	err := pgxscan.Select(ctx, r.q, &out, `
		SELECT id, entity, entity_id, action, user_id, meta, at
		FROM audit_events WHERE entity = $1 AND entity_id = $2
		ORDER BY at, id`, entityName, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
