package repository

import (
	"context"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// ItemRepository lectura del maestro de ítems (administrado por un colaborador externo).
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Item, error)
}

// WarehouseRepository lectura del maestro de bodegas.
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}
