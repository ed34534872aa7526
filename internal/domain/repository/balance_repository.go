package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// BalanceRepository puerto del Balance Store (saldo por ítem+bodega).
// Dentro de una transacción, GetForUpdate y GetOrCreateForUpdate bloquean la fila.
type BalanceRepository interface {
	Get(ctx context.Context, itemID, warehouseID string) (*entity.Balance, error)
	GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Balance, error)
	// GetOrCreateForUpdate inserta el saldo en cero si no existe y lo devuelve bloqueado.
	GetOrCreateForUpdate(ctx context.Context, itemID, warehouseID string, now time.Time) (*entity.Balance, error)
	// LockKeys recorre las claves en el orden recibido; por cada una inserta la fila si
	// Create y no existe, y luego la bloquea. Así todas las filas quedan tomadas en ese orden.
	LockKeys(ctx context.Context, locks []entity.BalanceLock, now time.Time) error
	ListByWarehouse(ctx context.Context, warehouseID string, itemIDs []string) ([]*entity.Balance, error)
	Create(ctx context.Context, balance *entity.Balance) error
	// UpdatePosition persiste cantidad y costo promedio.
	UpdatePosition(ctx context.Context, balance *entity.Balance) error
	UpdateThresholds(ctx context.Context, itemID, warehouseID string, min, max *decimal.Decimal) error
	Delete(ctx context.Context, itemID, warehouseID string) error
}
