package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, kind, subkind, state, date, source_warehouse_id, destination_warehouse_id,
	third_party_id, reference, notes, user_id, version, seq, published_seq, created_at, updated_at`

const lineColumns = `id, movement_id, item_id, quantity, unit_cost, line_total,
	origin_quantity, origin_average_cost, origin_value,
	destination_quantity, destination_average_cost, destination_value, seq`

// MovementRepo documentos de movimiento y sus líneas sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// lineRow fila plana de movement_lines; los snapshots son columnas anulables.
type lineRow struct {
	ID                     string           `db:"id"`
	MovementID             string           `db:"movement_id"`
	ItemID                 string           `db:"item_id"`
	Quantity               decimal.Decimal  `db:"quantity"`
	UnitCost               *decimal.Decimal `db:"unit_cost"`
	LineTotal              *decimal.Decimal `db:"line_total"`
	OriginQuantity         *decimal.Decimal `db:"origin_quantity"`
	OriginAverageCost      *decimal.Decimal `db:"origin_average_cost"`
	OriginValue            *decimal.Decimal `db:"origin_value"`
	DestinationQuantity    *decimal.Decimal `db:"destination_quantity"`
	DestinationAverageCost *decimal.Decimal `db:"destination_average_cost"`
	DestinationValue       *decimal.Decimal `db:"destination_value"`
	Seq                    int64            `db:"seq"`
}

func (l lineRow) toEntity() entity.MovementLine {
	return entity.MovementLine{
		ID:          l.ID,
		MovementID:  l.MovementID,
		ItemID:      l.ItemID,
		Quantity:    l.Quantity,
		UnitCost:    l.UnitCost,
		LineTotal:   l.LineTotal,
		Origin:      snapshotFrom(l.OriginQuantity, l.OriginAverageCost, l.OriginValue),
		Destination: snapshotFrom(l.DestinationQuantity, l.DestinationAverageCost, l.DestinationValue),
		Seq:         l.Seq,
	}
}

// snapshotFrom nil si la cantidad es NULL (línea no publicada o pierna inexistente).
func snapshotFrom(qty, avg, value *decimal.Decimal) *entity.LineSnapshot {
	if qty == nil {
		return nil
	}
	s := entity.LineSnapshot{Quantity: *qty}
	if avg != nil {
		s.AverageCost = *avg
	}
	if value != nil {
		s.Value = *value
	} else {
		s.Value = s.Quantity.Mul(s.AverageCost)
	}
	return &s
}

func snapshotArgs(s *entity.LineSnapshot) (qty, avg, value *decimal.Decimal) {
	if s == nil {
		return nil, nil, nil
	}
	q, a, v := s.Quantity, s.AverageCost, s.Value
	return &q, &a, &v
}

// Create inserta cabecera y líneas; asigna seq de inserción.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO movements (id, kind, subkind, state, date, source_warehouse_id, destination_warehouse_id,
			third_party_id, reference, notes, user_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING seq`,
		m.ID, string(m.Kind), m.Subkind, string(m.State), m.Date, m.SourceWarehouseID, m.DestinationWarehouseID,
		m.ThirdPartyID, m.Reference, m.Notes, m.UserID, m.Version, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return r.insertLines(ctx, m.ID, m.Lines)
}

func (r *MovementRepo) insertLines(ctx context.Context, movementID string, lines []entity.MovementLine) error {
	for i := range lines {
		l := &lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.MovementID = movementID
		oq, oa, ov := snapshotArgs(l.Origin)
		dq, da, dv := snapshotArgs(l.Destination)
		err := r.q.QueryRow(ctx, `
			INSERT INTO movement_lines (id, movement_id, item_id, quantity, unit_cost, line_total,
				origin_quantity, origin_average_cost, origin_value,
				destination_quantity, destination_average_cost, destination_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING seq`,
			l.ID, movementID, l.ItemID, l.Quantity, l.UnitCost, l.LineTotal, oq, oa, ov, dq, da, dv,
		).Scan(&l.Seq)
		if err != nil {
			return fmt.Errorf("insert movement line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el documento con sus líneas; nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	return r.get(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id)
}

// GetForUpdate obtiene el documento y bloquea la cabecera (SELECT FOR UPDATE).
func (r *MovementRepo) GetForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.get(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1 FOR UPDATE`, id)
}

func (r *MovementRepo) get(ctx context.Context, sql, id string) (*entity.Movement, error) {
	var m entity.Movement
	var kind, state string
	err := r.q.QueryRow(ctx, sql, id).Scan(
		&m.ID, &kind, &m.Subkind, &state, &m.Date, &m.SourceWarehouseID, &m.DestinationWarehouseID,
		&m.ThirdPartyID, &m.Reference, &m.Notes, &m.UserID, &m.Version, &m.Seq, &m.PublishedSeq, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	m.Kind, m.State = entity.MovementKind(kind), entity.MovementState(state)

	var rows []lineRow
	if err := pgxscan.Select(ctx, r.q, &rows, `SELECT `+lineColumns+` FROM movement_lines
		WHERE movement_id = $1 ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("get movement lines: %w", err)
	}
	m.Lines = make([]entity.MovementLine, 0, len(rows))
	for _, row := range rows {
		m.Lines = append(m.Lines, row.toEntity())
	}
	return &m, nil
}

// UpdateDraft reemplaza la cabecera si la versión coincide (concurrencia optimista).
func (r *MovementRepo) UpdateDraft(ctx context.Context, m *entity.Movement, expectedVersion int) error {
	var version int
	err := r.q.QueryRow(ctx, `
		UPDATE movements
		SET subkind = $3, date = $4, source_warehouse_id = $5, destination_warehouse_id = $6,
			third_party_id = $7, reference = $8, notes = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`,
		m.ID, expectedVersion, m.Subkind, m.Date, m.SourceWarehouseID, m.DestinationWarehouseID,
		m.ThirdPartyID, m.Reference, m.Notes, m.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("update draft: %w", err)
	}
	m.Version = version
	return nil
}

// ReplaceLines borra e inserta de nuevo todas las líneas del borrador.
func (r *MovementRepo) ReplaceLines(ctx context.Context, movementID string, lines []entity.MovementLine) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM movement_lines WHERE movement_id = $1`, movementID); err != nil {
		return fmt.Errorf("delete movement lines: %w", err)
	}
	return r.insertLines(ctx, movementID, lines)
}

// SaveLineResult persiste costo, total y snapshots calculados al publicar.
func (r *MovementRepo) SaveLineResult(ctx context.Context, l *entity.MovementLine) error {
	oq, oa, ov := snapshotArgs(l.Origin)
	dq, da, dv := snapshotArgs(l.Destination)
	tag, err := r.q.Exec(ctx, `
		UPDATE movement_lines
		SET unit_cost = $2, line_total = $3,
			origin_quantity = $4, origin_average_cost = $5, origin_value = $6,
			destination_quantity = $7, destination_average_cost = $8, destination_value = $9
		WHERE id = $1`,
		l.ID, l.UnitCost, l.LineTotal, oq, oa, ov, dq, da, dv,
	)
	if err != nil {
		return fmt.Errorf("save line result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateState cambia el estado e incrementa la versión. Al pasar a PUBLISHED toma el
// siguiente valor de movements_published_seq, que fija el orden de replay del kardex.
func (r *MovementRepo) UpdateState(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRow(ctx, `
		UPDATE movements SET state = $2, updated_at = $3, version = version + 1,
			published_seq = CASE
				WHEN $2 = 'PUBLISHED' AND published_seq IS NULL THEN nextval('movements_published_seq')
				ELSE published_seq
			END
		WHERE id = $1
		RETURNING version, published_seq`,
		m.ID, string(m.State), m.UpdatedAt,
	).Scan(&m.Version, &m.PublishedSeq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update movement state: %w", err)
	}
	return nil
}

// Delete elimina el documento; las líneas caen por ON DELETE CASCADE.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

