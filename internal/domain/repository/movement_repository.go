package repository

import (
	"context"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// MovementRepository puerto de persistencia de documentos de movimiento y sus líneas.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// GetForUpdate carga el documento con sus líneas y bloquea la cabecera.
	GetForUpdate(ctx context.Context, id string) (*entity.Movement, error)
	// UpdateDraft reemplaza la cabecera si la versión almacenada coincide con expectedVersion
	// e incrementa la versión. Devuelve domain.ErrVersionConflict si no coincide.
	UpdateDraft(ctx context.Context, movement *entity.Movement, expectedVersion int) error
	ReplaceLines(ctx context.Context, movementID string, lines []entity.MovementLine) error
	// SaveLineResult persiste costo, total y snapshots calculados al publicar.
	SaveLineResult(ctx context.Context, line *entity.MovementLine) error
	UpdateState(ctx context.Context, movement *entity.Movement) error
	Delete(ctx context.Context, id string) error
}
