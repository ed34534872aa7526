package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance saldo de un ítem en una bodega: cantidad, costo promedio ponderado,
// umbrales y el saldo inicial inmutable registrado al asignar el ítem.
type Balance struct {
	ID              string
	ItemID          string
	WarehouseID     string
	QuantityOnHand  decimal.Decimal
	AverageCost     decimal.Decimal
	MinThreshold    *decimal.Decimal
	MaxThreshold    *decimal.Decimal
	OpeningQuantity *decimal.Decimal
	OpeningCost     *decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TotalValue siempre se recalcula; nunca se persiste como fuente de verdad.
func (b *Balance) TotalValue() decimal.Decimal {
	return b.QuantityOnHand.Mul(b.AverageCost)
}

// HasOpening indica si el saldo tiene saldo inicial registrado.
func (b *Balance) HasOpening() bool {
	return b.OpeningQuantity != nil
}

// BelowMinimum indica si la cantidad está por debajo del umbral mínimo.
func (b *Balance) BelowMinimum() bool {
	return b.MinThreshold != nil && b.QuantityOnHand.LessThan(*b.MinThreshold)
}

// BalanceKey identifica un saldo por (ítem, bodega).
type BalanceKey struct {
	ItemID      string
	WarehouseID string
}

// BalanceLock saldo a bloquear al publicar. Create indica que la fila se inserta en
// cero si no existe (destino de entradas y traslados).
type BalanceLock struct {
	Key    BalanceKey
	Create bool
}

// Less orden determinista para bloquear filas sin interbloqueos.
func (k BalanceKey) Less(o BalanceKey) bool {
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	return k.WarehouseID < o.WarehouseID
}
