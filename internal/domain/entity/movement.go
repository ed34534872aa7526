package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de documento de movimiento (variante cerrada).
type MovementKind string

// Tipos de movimiento de inventario.
const (
	MovementKindInbound    MovementKind = "IN"         // entrada
	MovementKindOutbound   MovementKind = "OUT"        // salida
	MovementKindTransfer   MovementKind = "TRANSFER"   // traslado entre bodegas
	MovementKindAdjustment MovementKind = "ADJUSTMENT" // ajuste: se valida en borrador pero no se publica
)

// Valid indica si el tipo pertenece a la variante cerrada.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindInbound, MovementKindOutbound, MovementKindTransfer, MovementKindAdjustment:
		return true
	}
	return false
}

// CarriesUnitCost indica si las líneas llevan costo unitario explícito del usuario.
// Solo las entradas; salidas y traslados toman el costo del saldo al publicar.
func (k MovementKind) CarriesUnitCost() bool { return k == MovementKindInbound }

// Label descripción legible usada en el kardex.
func (k MovementKind) Label() string {
	switch k {
	case MovementKindInbound:
		return "Entrada"
	case MovementKindOutbound:
		return "Salida"
	case MovementKindTransfer:
		return "Traslado"
	case MovementKindAdjustment:
		return "Ajuste"
	}
	return string(k)
}

// MovementState estado del documento.
type MovementState string

// Estados: borrador → publicado → anulado.
const (
	MovementStateDraft     MovementState = "DRAFT"
	MovementStatePublished MovementState = "PUBLISHED"
	MovementStateVoided    MovementState = "VOIDED"
)

// Movement documento de movimiento (cabecera + líneas) con versión para concurrencia optimista.
type Movement struct {
	ID                     string
	Kind                   MovementKind
	Subkind                string // compra, devolución, venta... (libre)
	State                  MovementState
	Date                   time.Time
	SourceWarehouseID      *string
	DestinationWarehouseID *string
	ThirdPartyID           *string
	Reference              string
	Notes                  string
	UserID                 string
	Version                int
	Seq                    int64  // orden de inserción asignado por el store
	PublishedSeq           *int64 // orden de publicación; nil mientras es borrador
	CreatedAt              time.Time
	UpdatedAt              time.Time
	Lines                  []MovementLine
}

// LineSnapshot estado resultante de un saldo después de aplicar la línea.
type LineSnapshot struct {
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
	Value       decimal.Decimal
}

// MovementLine línea de un documento. Origin y Destination son los snapshots
// del saldo origen y destino; un traslado lleva ambos.
type MovementLine struct {
	ID          string
	MovementID  string
	ItemID      string
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal
	LineTotal   *decimal.Decimal
	Origin      *LineSnapshot
	Destination *LineSnapshot
	Seq         int64
}

// SetUnitCost fija el costo unitario y recalcula el total de la línea.
func (l *MovementLine) SetUnitCost(cost decimal.Decimal) {
	total := l.Quantity.Mul(cost)
	l.UnitCost = &cost
	l.LineTotal = &total
}

// WarehouseIDs devuelve las bodegas referenciadas por el documento.
func (m *Movement) WarehouseIDs() []string {
	ids := make([]string, 0, 2)
	if m.SourceWarehouseID != nil {
		ids = append(ids, *m.SourceWarehouseID)
	}
	if m.DestinationWarehouseID != nil {
		ids = append(ids, *m.DestinationWarehouseID)
	}
	return ids
}
