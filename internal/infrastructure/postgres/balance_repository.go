package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

const balanceColumns = `id, item_id, warehouse_id, quantity_on_hand, average_cost,
	min_threshold, max_threshold, opening_quantity, opening_cost, created_at, updated_at`

// BalanceRepo saldos por ítem y bodega sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Get obtiene el saldo sin bloquear; nil si no existe.
func (r *BalanceRepo) Get(ctx context.Context, itemID, warehouseID string) (*entity.Balance, error) {
	return r.get(ctx, `SELECT `+balanceColumns+` FROM inventory_balances
		WHERE item_id = $1 AND warehouse_id = $2`, itemID, warehouseID)
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Balance, error) {
	return r.get(ctx, `SELECT `+balanceColumns+` FROM inventory_balances
		WHERE item_id = $1 AND warehouse_id = $2
		FOR UPDATE`, itemID, warehouseID)
}

// GetOrCreateForUpdate inserta el saldo en cero si no existe y lo devuelve bloqueado.
func (r *BalanceRepo) GetOrCreateForUpdate(ctx context.Context, itemID, warehouseID string, now time.Time) (*entity.Balance, error) {
	if err := r.insertIfAbsent(ctx, entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}, now); err != nil {
		return nil, err
	}
	bal, err := r.GetForUpdate(ctx, itemID, warehouseID)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return nil, fmt.Errorf("balance %s@%s not visible after insert", itemID, warehouseID)
	}
	return bal, nil
}

func (r *BalanceRepo) insertIfAbsent(ctx context.Context, k entity.BalanceKey, now time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_balances (id, item_id, warehouse_id, quantity_on_hand, average_cost, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $4)
		ON CONFLICT (item_id, warehouse_id) DO NOTHING`,
		uuid.New().String(), k.ItemID, k.WarehouseID, now,
	)
	if err != nil {
		return fmt.Errorf("insert balance if absent %s@%s: %w", k.ItemID, k.WarehouseID, err)
	}
	return nil
}

// LockKeys inserta (si corresponde) y bloquea cada fila en el orden recibido, de modo
// que las filas nuevas también se toman en orden (ítem, bodega).
func (r *BalanceRepo) LockKeys(ctx context.Context, locks []entity.BalanceLock, now time.Time) error {
	for _, l := range locks {
		if l.Create {
			if err := r.insertIfAbsent(ctx, l.Key, now); err != nil {
				return err
			}
		}
		_, err := r.q.Exec(ctx, `SELECT 1 FROM inventory_balances
			WHERE item_id = $1 AND warehouse_id = $2
			FOR UPDATE`, l.Key.ItemID, l.Key.WarehouseID)
		if err != nil {
			return fmt.Errorf("lock balance %s@%s: %w", l.Key.ItemID, l.Key.WarehouseID, err)
		}
	}
	return nil
}

// ListByWarehouse saldos de una bodega para los ítems indicados.
func (r *BalanceRepo) ListByWarehouse(ctx context.Context, warehouseID string, itemIDs []string) ([]*entity.Balance, error) {
	sql, args, err := balancesByItemsQuery(warehouseID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("build balances query: %w", err)
	}
	var out []*entity.Balance
	if err := pgxscan.Select(ctx, r.q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return out, nil
}

func balancesByItemsQuery(warehouseID string, itemIDs []string) (string, []any, error) {
	return psql.Select(balanceColumns).
		From("inventory_balances").
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		Where(squirrel.Eq{"item_id": itemIDs}).
		OrderBy("item_id").
		ToSql()
}

// Create inserta el saldo (asignación con saldo inicial).
func (r *BalanceRepo) Create(ctx context.Context, b *entity.Balance) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_balances (`+balanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.ItemID, b.WarehouseID, b.QuantityOnHand, b.AverageCost,
		b.MinThreshold, b.MaxThreshold, b.OpeningQuantity, b.OpeningCost, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create balance: %w", err)
	}
	return nil
}

// UpdatePosition persiste cantidad y costo promedio.
func (r *BalanceRepo) UpdatePosition(ctx context.Context, b *entity.Balance) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_balances
		SET quantity_on_hand = $3, average_cost = $4, updated_at = $5
		WHERE item_id = $1 AND warehouse_id = $2`,
		b.ItemID, b.WarehouseID, b.QuantityOnHand, b.AverageCost, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update balance position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateThresholds actualiza mínimo y máximo.
func (r *BalanceRepo) UpdateThresholds(ctx context.Context, itemID, warehouseID string, minT, maxT *decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_balances
		SET min_threshold = $3, max_threshold = $4, updated_at = now()
		WHERE item_id = $1 AND warehouse_id = $2`,
		itemID, warehouseID, minT, maxT,
	)
	if err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el saldo; la bitácora de costos conserva la referencia en NULL.
func (r *BalanceRepo) Delete(ctx context.Context, itemID, warehouseID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_balances WHERE item_id = $1 AND warehouse_id = $2`, itemID, warehouseID)
	if err != nil {
		return fmt.Errorf("delete balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BalanceRepo) get(ctx context.Context, sql string, args ...any) (*entity.Balance, error) {
	var b entity.Balance
	if err := pgxscan.Get(ctx, r.q, &b, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}
