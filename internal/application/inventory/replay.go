package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/inventory"
)

type legDirection int

const (
	legInbound legDirection = iota
	legOutbound
)

// ledgerLeg una pierna (entrada o salida) de una línea publicada, vista desde una bodega.
type ledgerLeg struct {
	direction legDirection
	quantity  decimal.Decimal
	unitCost  *decimal.Decimal
	snapshot  *entity.LineSnapshot
}

// replayStep avanza el saldo acumulado con una pierna y devuelve el detalle para la fila.
type replayStep interface {
	apply(running inventory.Position) (inventory.Position, dto.LedgerLeg, error)
	fromSnapshot() bool
}

// stepFor usa el snapshot guardado al publicar cuando existe; si no, recalcula.
func stepFor(leg ledgerLeg) replayStep {
	if leg.snapshot != nil {
		return snapshotStep{leg: leg}
	}
	return recomputeStep{leg: leg}
}

// snapshotStep toma el saldo resultante tal como quedó registrado al publicar.
type snapshotStep struct{ leg ledgerLeg }

func (s snapshotStep) fromSnapshot() bool { return true }

func (s snapshotStep) apply(running inventory.Position) (inventory.Position, dto.LedgerLeg, error) {
	next := inventory.Position{Quantity: s.leg.snapshot.Quantity, AverageCost: s.leg.snapshot.AverageCost}
	cost := running.AverageCost
	if s.leg.unitCost != nil {
		cost = *s.leg.unitCost
	}
	return next, legDetail(s.leg.quantity, cost), nil
}

// recomputeStep aplica la valoración sobre el saldo acumulado (líneas sin snapshot
// o kardex sin bodega). Las salidas nunca fallan por saldo negativo al reconstruir.
type recomputeStep struct{ leg ledgerLeg }

func (s recomputeStep) fromSnapshot() bool { return false }

func (s recomputeStep) apply(running inventory.Position) (inventory.Position, dto.LedgerLeg, error) {
	cost := running.AverageCost
	if s.leg.unitCost != nil {
		cost = *s.leg.unitCost
	}
	if s.leg.direction == legInbound {
		next, err := inventory.ApplyInbound(running, s.leg.quantity, cost)
		if err != nil {
			return running, dto.LedgerLeg{}, err
		}
		return next, legDetail(s.leg.quantity, cost), nil
	}
	next, _, err := inventory.ApplyOutbound(running, s.leg.quantity, true)
	if err != nil {
		return running, dto.LedgerLeg{}, err
	}
	return next, legDetail(s.leg.quantity, cost), nil
}

func legDetail(qty, unitCost decimal.Decimal) dto.LedgerLeg {
	return dto.LedgerLeg{Quantity: qty, UnitCost: unitCost, Value: qty.Mul(unitCost)}
}
