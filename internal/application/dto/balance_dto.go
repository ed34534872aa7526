package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// AssignItemInput asigna un ítem a una bodega con su saldo inicial.
type AssignItemInput struct {
	ItemID          string           `json:"item_id" validate:"required"`
	WarehouseID     string           `json:"-" validate:"required"`
	InitialQuantity decimal.Decimal  `json:"initial_quantity"`
	InitialCost     decimal.Decimal  `json:"initial_cost"`
	MinThreshold    *decimal.Decimal `json:"min_threshold,omitempty"`
	MaxThreshold    *decimal.Decimal `json:"max_threshold,omitempty"`
}

// ThresholdsInput umbrales mínimo/máximo de un saldo.
type ThresholdsInput struct {
	MinThreshold *decimal.Decimal `json:"min_threshold"`
	MaxThreshold *decimal.Decimal `json:"max_threshold"`
}

// BalanceResponse saldo de un ítem en una bodega.
type BalanceResponse struct {
	ID              string           `json:"id"`
	ItemID          string           `json:"item_id"`
	WarehouseID     string           `json:"warehouse_id"`
	QuantityOnHand  decimal.Decimal  `json:"quantity_on_hand"`
	AverageCost     decimal.Decimal  `json:"average_cost"`
	TotalValue      decimal.Decimal  `json:"total_value"`
	MinThreshold    *decimal.Decimal `json:"min_threshold,omitempty"`
	MaxThreshold    *decimal.Decimal `json:"max_threshold,omitempty"`
	OpeningQuantity *decimal.Decimal `json:"opening_quantity,omitempty"`
	OpeningCost     *decimal.Decimal `json:"opening_cost,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AverageCost costo promedio vigente de un ítem en una bodega.
type AverageCost struct {
	AverageCost    decimal.Decimal  `json:"average_cost"`
	QuantityOnHand decimal.Decimal  `json:"quantity_on_hand"`
	TotalValue     decimal.Decimal  `json:"total_value"`
	MinThreshold   *decimal.Decimal `json:"min_threshold,omitempty"`
	BelowMinimum   bool             `json:"below_minimum"`
}

// NewBalanceResponse mapea la entidad a su representación de salida.
func NewBalanceResponse(b *entity.Balance) BalanceResponse {
	return BalanceResponse{
		ID:              b.ID,
		ItemID:          b.ItemID,
		WarehouseID:     b.WarehouseID,
		QuantityOnHand:  b.QuantityOnHand,
		AverageCost:     b.AverageCost,
		TotalValue:      b.TotalValue(),
		MinThreshold:    b.MinThreshold,
		MaxThreshold:    b.MaxThreshold,
		OpeningQuantity: b.OpeningQuantity,
		OpeningCost:     b.OpeningCost,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// NewAverageCost arma el costo promedio a partir de un saldo (nil = ceros).
func NewAverageCost(b *entity.Balance) AverageCost {
	if b == nil {
		return AverageCost{AverageCost: decimal.Zero, QuantityOnHand: decimal.Zero, TotalValue: decimal.Zero}
	}
	return AverageCost{
		AverageCost:    b.AverageCost,
		QuantityOnHand: b.QuantityOnHand,
		TotalValue:     b.TotalValue(),
		MinThreshold:   b.MinThreshold,
		BelowMinimum:   b.BelowMinimum(),
	}
}
