package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo lectura de líneas publicadas para el kardex.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

type ledgerRow struct {
	MovementID             string           `db:"movement_id"`
	Kind                   string           `db:"kind"`
	Subkind                string           `db:"subkind"`
	Reference              string           `db:"reference"`
	Notes                  string           `db:"notes"`
	Date                   time.Time        `db:"date"`
	CreatedAt              time.Time        `db:"created_at"`
	MovementSeq            int64            `db:"movement_seq"`
	PublishedSeq           *int64           `db:"published_seq"`
	LineSeq                int64            `db:"line_seq"`
	SourceWarehouseID      *string          `db:"source_warehouse_id"`
	DestinationWarehouseID *string          `db:"destination_warehouse_id"`
	Quantity               decimal.Decimal  `db:"quantity"`
	UnitCost               *decimal.Decimal `db:"unit_cost"`
	OriginQuantity         *decimal.Decimal `db:"origin_quantity"`
	OriginAverageCost      *decimal.Decimal `db:"origin_average_cost"`
	OriginValue            *decimal.Decimal `db:"origin_value"`
	DestinationQuantity    *decimal.Decimal `db:"destination_quantity"`
	DestinationAverageCost *decimal.Decimal `db:"destination_average_cost"`
	DestinationValue       *decimal.Decimal `db:"destination_value"`
}

// ListPublishedLines líneas publicadas del ítem en orden de publicación, seq del documento, seq de línea.
func (r *LedgerRepo) ListPublishedLines(ctx context.Context, f repository.LedgerFilter) ([]repository.LedgerLine, error) {
	sql, args, err := ledgerQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build ledger query: %w", err)
	}
	var rows []ledgerRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list ledger lines: %w", err)
	}
	out := make([]repository.LedgerLine, 0, len(rows))
	for _, row := range rows {
		var published int64
		if row.PublishedSeq != nil {
			published = *row.PublishedSeq
		}
		out = append(out, repository.LedgerLine{
			MovementID:             row.MovementID,
			Kind:                   entity.MovementKind(row.Kind),
			Subkind:                row.Subkind,
			Reference:              row.Reference,
			Notes:                  row.Notes,
			Date:                   row.Date,
			CreatedAt:              row.CreatedAt,
			MovementSeq:            row.MovementSeq,
			PublishedSeq:           published,
			LineSeq:                row.LineSeq,
			SourceWarehouseID:      row.SourceWarehouseID,
			DestinationWarehouseID: row.DestinationWarehouseID,
			Quantity:               row.Quantity,
			UnitCost:               row.UnitCost,
			Origin:                 snapshotFrom(row.OriginQuantity, row.OriginAverageCost, row.OriginValue),
			Destination:            snapshotFrom(row.DestinationQuantity, row.DestinationAverageCost, row.DestinationValue),
		})
	}
	return out, nil
}

// ledgerQuery arma la consulta con el filtro opcional de bodega.
func ledgerQuery(f repository.LedgerFilter) (string, []any, error) {
	q := psql.Select(
		"m.id AS movement_id", "m.kind", "m.subkind", "m.reference", "m.notes", "m.date", "m.created_at",
		"m.seq AS movement_seq", "m.published_seq", "l.seq AS line_seq",
		"m.source_warehouse_id", "m.destination_warehouse_id",
		"l.quantity", "l.unit_cost",
		"l.origin_quantity", "l.origin_average_cost", "l.origin_value",
		"l.destination_quantity", "l.destination_average_cost", "l.destination_value",
	).
		From("movement_lines l").
		Join("movements m ON m.id = l.movement_id").
		Where(squirrel.Eq{"l.item_id": f.ItemID}).
		Where(squirrel.Eq{"m.state": string(entity.MovementStatePublished)})

	if f.WarehouseID != "" {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"m.source_warehouse_id": f.WarehouseID},
			squirrel.Eq{"m.destination_warehouse_id": f.WarehouseID},
		})
	}
	return q.OrderBy("m.published_seq NULLS FIRST", "m.created_at", "m.seq", "l.seq").ToSql()
}
