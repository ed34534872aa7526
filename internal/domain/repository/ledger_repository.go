package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// LedgerFilter filtro de líneas publicadas para reconstruir el kardex. Fechas y tipo
// no se filtran aquí: el recorrido necesita todas las líneas para arrastrar el saldo.
type LedgerFilter struct {
	ItemID      string
	WarehouseID string // vacío = todas las bodegas
}

// LedgerLine línea publicada con los datos de cabecera necesarios para el kardex.
type LedgerLine struct {
	MovementID             string
	Kind                   entity.MovementKind
	Subkind                string
	Reference              string
	Notes                  string
	Date                   time.Time
	CreatedAt              time.Time
	MovementSeq            int64
	PublishedSeq           int64
	LineSeq                int64
	SourceWarehouseID      *string
	DestinationWarehouseID *string
	Quantity               decimal.Decimal
	UnitCost               *decimal.Decimal
	Origin                 *entity.LineSnapshot
	Destination            *entity.LineSnapshot
}

// LedgerRepository lectura de líneas publicadas en el orden en que se publicaron los
// documentos (empates por orden de inserción de documento y línea).
type LedgerRepository interface {
	ListPublishedLines(ctx context.Context, filter LedgerFilter) ([]LedgerLine, error)
}
