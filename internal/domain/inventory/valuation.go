// Package inventory contiene la valoración por costo promedio ponderado.
// Funciones puras: sin I/O ni estado.
package inventory

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain"
)

var (
	// ErrInvalidQuantity cantidad menor o igual a cero.
	ErrInvalidQuantity = errors.New("inventory: la cantidad debe ser mayor que cero")
	// ErrInvalidUnitCost costo unitario negativo.
	ErrInvalidUnitCost = errors.New("inventory: el costo unitario debe ser >= 0")
)

// Position cantidad y costo promedio de un saldo en un instante.
type Position struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// Value cantidad × costo promedio.
func (p Position) Value() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// WeightedAverage implementa el costo promedio ponderado.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverage(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.IsZero() {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// ApplyInbound aplica una entrada. Si la cantidad resultante es cero el saldo
// queda en (0, 0); el promedio usa siempre la cantidad/costo previos.
func ApplyInbound(p Position, quantity, unitCost decimal.Decimal) (Position, error) {
	if !quantity.IsPositive() {
		return p, ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return p, ErrInvalidUnitCost
	}
	newQty := p.Quantity.Add(quantity)
	if newQty.IsZero() {
		return Position{Quantity: decimal.Zero, AverageCost: decimal.Zero}, nil
	}
	return Position{
		Quantity:    newQty,
		AverageCost: WeightedAverage(p.Quantity, p.AverageCost, quantity, unitCost),
	}, nil
}

// ApplyOutbound aplica una salida. El costo promedio no cambia; devuelve también
// el valor consumido (cantidad × costo promedio vigente).
func ApplyOutbound(p Position, quantity decimal.Decimal, allowNegative bool) (Position, decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return p, decimal.Zero, ErrInvalidQuantity
	}
	newQty := p.Quantity.Sub(quantity)
	if newQty.IsNegative() && !allowNegative {
		return p, decimal.Zero, domain.ErrInsufficientStock
	}
	return Position{Quantity: newQty, AverageCost: p.AverageCost}, quantity.Mul(p.AverageCost), nil
}
