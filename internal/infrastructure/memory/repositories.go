package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

type itemRepo struct{ st *state }

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	it, ok := r.st.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

type warehouseRepo struct{ st *state }

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	wh, ok := r.st.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &wh, nil
}

type balanceRepo struct{ st *state }

func (r *balanceRepo) Get(_ context.Context, itemID, warehouseID string) (*entity.Balance, error) {
	b, ok := r.st.balances[entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *balanceRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Balance, error) {
	return r.Get(ctx, itemID, warehouseID)
}

func (r *balanceRepo) GetOrCreateForUpdate(ctx context.Context, itemID, warehouseID string, now time.Time) (*entity.Balance, error) {
	key := entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}
	if _, ok := r.st.balances[key]; !ok {
		r.st.balances[key] = entity.Balance{
			ID:             uuid.New().String(),
			ItemID:         itemID,
			WarehouseID:    warehouseID,
			QuantityOnHand: decimal.Zero,
			AverageCost:    decimal.Zero,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}
	return r.Get(ctx, itemID, warehouseID)
}

// LockKeys solo crea las filas pedidas; el mutex del Store ya serializa las transacciones.
func (r *balanceRepo) LockKeys(ctx context.Context, locks []entity.BalanceLock, now time.Time) error {
	for _, l := range locks {
		if !l.Create {
			continue
		}
		if _, err := r.GetOrCreateForUpdate(ctx, l.Key.ItemID, l.Key.WarehouseID, now); err != nil {
			return err
		}
	}
	return nil
}

func (r *balanceRepo) ListByWarehouse(_ context.Context, warehouseID string, itemIDs []string) ([]*entity.Balance, error) {
	out := make([]*entity.Balance, 0, len(itemIDs))
	for _, id := range itemIDs {
		if b, ok := r.st.balances[entity.BalanceKey{ItemID: id, WarehouseID: warehouseID}]; ok {
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r *balanceRepo) Create(_ context.Context, b *entity.Balance) error {
	key := entity.BalanceKey{ItemID: b.ItemID, WarehouseID: b.WarehouseID}
	if _, ok := r.st.balances[key]; ok {
		return domain.ErrDuplicate
	}
	r.st.balances[key] = *b
	return nil
}

func (r *balanceRepo) UpdatePosition(_ context.Context, b *entity.Balance) error {
	key := entity.BalanceKey{ItemID: b.ItemID, WarehouseID: b.WarehouseID}
	cur, ok := r.st.balances[key]
	if !ok {
		return domain.ErrNotFound
	}
	cur.QuantityOnHand = b.QuantityOnHand
	cur.AverageCost = b.AverageCost
	cur.UpdatedAt = b.UpdatedAt
	r.st.balances[key] = cur
	return nil
}

func (r *balanceRepo) UpdateThresholds(_ context.Context, itemID, warehouseID string, minT, maxT *decimal.Decimal) error {
	key := entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}
	cur, ok := r.st.balances[key]
	if !ok {
		return domain.ErrNotFound
	}
	cur.MinThreshold, cur.MaxThreshold = minT, maxT
	r.st.balances[key] = cur
	return nil
}

func (r *balanceRepo) Delete(_ context.Context, itemID, warehouseID string) error {
	key := entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}
	if _, ok := r.st.balances[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.balances, key)
	return nil
}

type movementRepo struct{ st *state }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	if _, ok := r.st.movements[m.ID]; ok {
		return domain.ErrDuplicate
	}
	m.Seq = r.st.nextSeq()
	for i := range m.Lines {
		m.Lines[i].MovementID = m.ID
		m.Lines[i].Seq = r.st.nextSeq()
	}
	r.st.movements[m.ID] = copyMovement(*m)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	m, ok := r.st.movements[id]
	if !ok {
		return nil, nil
	}
	c := copyMovement(m)
	return &c, nil
}

func (r *movementRepo) GetForUpdate(ctx context.Context, id string) (*entity.Movement, error) {
	return r.GetByID(ctx, id)
}

func (r *movementRepo) UpdateDraft(_ context.Context, m *entity.Movement, expectedVersion int) error {
	cur, ok := r.st.movements[m.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	m.Version = expectedVersion + 1
	lines := cur.Lines
	next := copyMovement(*m)
	next.Lines = lines
	next.Seq = cur.Seq
	next.CreatedAt = cur.CreatedAt
	r.st.movements[m.ID] = next
	return nil
}

func (r *movementRepo) ReplaceLines(_ context.Context, movementID string, lines []entity.MovementLine) error {
	cur, ok := r.st.movements[movementID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Lines = make([]entity.MovementLine, len(lines))
	for i, l := range lines {
		l.MovementID = movementID
		l.Seq = r.st.nextSeq()
		cur.Lines[i] = l
	}
	r.st.movements[movementID] = cur
	return nil
}

func (r *movementRepo) SaveLineResult(_ context.Context, line *entity.MovementLine) error {
	cur, ok := r.st.movements[line.MovementID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range cur.Lines {
		if cur.Lines[i].ID == line.ID {
			cur.Lines[i].UnitCost = line.UnitCost
			cur.Lines[i].LineTotal = line.LineTotal
			cur.Lines[i].Origin = line.Origin
			cur.Lines[i].Destination = line.Destination
			r.st.movements[line.MovementID] = cur
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *movementRepo) UpdateState(_ context.Context, m *entity.Movement) error {
	cur, ok := r.st.movements[m.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.State = m.State
	cur.UpdatedAt = m.UpdatedAt
	cur.Version++
	if cur.State == entity.MovementStatePublished && cur.PublishedSeq == nil {
		n := r.st.nextPublished()
		cur.PublishedSeq = &n
	}
	m.Version = cur.Version
	m.PublishedSeq = cur.PublishedSeq
	r.st.movements[m.ID] = cur
	return nil
}

func (r *movementRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.movements[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.movements, id)
	return nil
}

type costAuditRepo struct{ st *state }

func (r *costAuditRepo) Append(_ context.Context, e *entity.CostAuditEntry) error {
	r.st.costAudit = append(r.st.costAudit, *e)
	return nil
}

func (r *costAuditRepo) ListByMovement(_ context.Context, movementID string) ([]*entity.CostAuditEntry, error) {
	var out []*entity.CostAuditEntry
	for i := range r.st.costAudit {
		if r.st.costAudit[i].MovementID == movementID {
			e := r.st.costAudit[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

type auditRepo struct{ st *state }

func (r *auditRepo) Append(_ context.Context, e *entity.AuditEvent) error {
	r.st.audit = append(r.st.audit, *e)
	return nil
}

func (r *auditRepo) ListByEntity(_ context.Context, entityName, entityID string) ([]*entity.AuditEvent, error) {
	var out []*entity.AuditEvent
	for i := range r.st.audit {
		if r.st.audit[i].Entity == entityName && r.st.audit[i].EntityID == entityID {
			e := r.st.audit[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

type ledgerRepo struct{ st *state }

// ListPublishedLines mismo orden que la consulta SQL: orden de publicación, seq del
// documento, seq de la línea.
func (r *ledgerRepo) ListPublishedLines(_ context.Context, f repository.LedgerFilter) ([]repository.LedgerLine, error) {
	var out []repository.LedgerLine
	for _, m := range r.st.movements {
		if m.State != entity.MovementStatePublished {
			continue
		}
		if f.WarehouseID != "" && !touches(m, f.WarehouseID) {
			continue
		}
		var published int64
		if m.PublishedSeq != nil {
			published = *m.PublishedSeq
		}
		for _, l := range m.Lines {
			if l.ItemID != f.ItemID {
				continue
			}
			out = append(out, repository.LedgerLine{
				MovementID:             m.ID,
				Kind:                   m.Kind,
				Subkind:                m.Subkind,
				Reference:              m.Reference,
				Notes:                  m.Notes,
				Date:                   m.Date,
				CreatedAt:              m.CreatedAt,
				MovementSeq:            m.Seq,
				PublishedSeq:           published,
				LineSeq:                l.Seq,
				SourceWarehouseID:      m.SourceWarehouseID,
				DestinationWarehouseID: m.DestinationWarehouseID,
				Quantity:               l.Quantity,
				UnitCost:               l.UnitCost,
				Origin:                 l.Origin,
				Destination:            l.Destination,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PublishedSeq != b.PublishedSeq {
			return a.PublishedSeq < b.PublishedSeq
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.MovementSeq != b.MovementSeq {
			return a.MovementSeq < b.MovementSeq
		}
		return a.LineSeq < b.LineSeq
	})
	return out, nil
}

func touches(m entity.Movement, warehouseID string) bool {
	return (m.SourceWarehouseID != nil && *m.SourceWarehouseID == warehouseID) ||
		(m.DestinationWarehouseID != nil && *m.DestinationWarehouseID == warehouseID)
}
