package repository

import (
	"context"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// AuditEventRepository eventos de auditoría de dominio.
type AuditEventRepository interface {
	Append(ctx context.Context, event *entity.AuditEvent) error
	ListByEntity(ctx context.Context, entityName, entityID string) ([]*entity.AuditEvent, error)
}
