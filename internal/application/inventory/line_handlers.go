package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/inventory"
)

// lineHandler aplica las líneas de un tipo de documento sobre los saldos.
type lineHandler interface {
	balanceLocks(m *entity.Movement) []entity.BalanceLock
	apply(ctx context.Context, pc *publishContext, line *entity.MovementLine) error
}

// publishContext estado compartido por las líneas de una publicación.
type publishContext struct {
	repos         Repos
	movement      *entity.Movement
	userID        string
	allowNegative bool
	now           time.Time
	itemNames     map[string]string
}

type inboundHandler struct{}

func (inboundHandler) balanceLocks(m *entity.Movement) []entity.BalanceLock {
	return locksFor(m, *m.DestinationWarehouseID, true)
}

func (inboundHandler) apply(ctx context.Context, pc *publishContext, line *entity.MovementLine) error {
	if line.UnitCost == nil {
		return domain.NewValidation("la entrada requiere costo unitario").WithDetail("item_id", line.ItemID)
	}
	snap, err := pc.receive(ctx, line.ItemID, *pc.movement.DestinationWarehouseID, line.Quantity, *line.UnitCost)
	if err != nil {
		return err
	}
	line.SetUnitCost(*line.UnitCost)
	line.Destination = &snap
	return nil
}

type outboundHandler struct{}

func (outboundHandler) balanceLocks(m *entity.Movement) []entity.BalanceLock {
	return locksFor(m, *m.SourceWarehouseID, false)
}

func (outboundHandler) apply(ctx context.Context, pc *publishContext, line *entity.MovementLine) error {
	snap, cost, err := pc.issue(ctx, line.ItemID, *pc.movement.SourceWarehouseID, line.Quantity)
	if err != nil {
		return err
	}
	line.SetUnitCost(cost)
	line.Origin = &snap
	return nil
}

// transferHandler salida en origen y entrada en destino al costo promedio del origen.
type transferHandler struct{}

func (transferHandler) balanceLocks(m *entity.Movement) []entity.BalanceLock {
	return append(locksFor(m, *m.SourceWarehouseID, false), locksFor(m, *m.DestinationWarehouseID, true)...)
}

func (transferHandler) apply(ctx context.Context, pc *publishContext, line *entity.MovementLine) error {
	origin, cost, err := pc.issue(ctx, line.ItemID, *pc.movement.SourceWarehouseID, line.Quantity)
	if err != nil {
		return err
	}
	dest, err := pc.receive(ctx, line.ItemID, *pc.movement.DestinationWarehouseID, line.Quantity, cost)
	if err != nil {
		return err
	}
	line.SetUnitCost(cost)
	line.Origin = &origin
	line.Destination = &dest
	return nil
}

func locksFor(m *entity.Movement, warehouseID string, create bool) []entity.BalanceLock {
	locks := make([]entity.BalanceLock, 0, len(m.Lines))
	for _, l := range m.Lines {
		locks = append(locks, entity.BalanceLock{
			Key:    entity.BalanceKey{ItemID: l.ItemID, WarehouseID: warehouseID},
			Create: create,
		})
	}
	return locks
}

// receive suma al saldo (lo crea en cero si no existe) y recalcula el promedio.
func (pc *publishContext) receive(ctx context.Context, itemID, warehouseID string, qty, unitCost decimal.Decimal) (entity.LineSnapshot, error) {
	bal, err := pc.repos.Balances.GetOrCreateForUpdate(ctx, itemID, warehouseID, pc.now)
	if err != nil {
		return entity.LineSnapshot{}, err
	}
	before := inventory.Position{Quantity: bal.QuantityOnHand, AverageCost: bal.AverageCost}
	after, err := inventory.ApplyInbound(before, qty, unitCost)
	if err != nil {
		return entity.LineSnapshot{}, domain.NewValidation(err.Error()).WithDetail("item_id", itemID)
	}
	if err := pc.persist(ctx, bal, before, after); err != nil {
		return entity.LineSnapshot{}, err
	}
	return snapshotOf(after), nil
}

// issue descuenta del saldo existente; el costo de la línea es el promedio vigente.
func (pc *publishContext) issue(ctx context.Context, itemID, warehouseID string, qty decimal.Decimal) (entity.LineSnapshot, decimal.Decimal, error) {
	bal, err := pc.repos.Balances.GetForUpdate(ctx, itemID, warehouseID)
	if err != nil {
		return entity.LineSnapshot{}, decimal.Zero, err
	}
	if bal == nil {
		return entity.LineSnapshot{}, decimal.Zero, domain.NewNotFound("saldo", itemID+"@"+warehouseID).
			WithDetail("item_id", itemID).
			WithDetail("warehouse_id", warehouseID)
	}
	before := inventory.Position{Quantity: bal.QuantityOnHand, AverageCost: bal.AverageCost}
	after, _, err := inventory.ApplyOutbound(before, qty, pc.allowNegative)
	if errors.Is(err, domain.ErrInsufficientStock) {
		name, nerr := pc.itemName(ctx, itemID)
		if nerr != nil {
			return entity.LineSnapshot{}, decimal.Zero, nerr
		}
		return entity.LineSnapshot{}, decimal.Zero, domain.NewInsufficientStock(name, qty, before.Quantity).
			WithDetail("item_id", itemID).
			WithDetail("warehouse_id", warehouseID)
	}
	if err != nil {
		return entity.LineSnapshot{}, decimal.Zero, domain.NewValidation(err.Error()).WithDetail("item_id", itemID)
	}
	if err := pc.persist(ctx, bal, before, after); err != nil {
		return entity.LineSnapshot{}, decimal.Zero, err
	}
	return snapshotOf(after), before.AverageCost, nil
}

// persist guarda la nueva posición y registra la bitácora si cambió el costo promedio.
func (pc *publishContext) persist(ctx context.Context, bal *entity.Balance, before, after inventory.Position) error {
	bal.QuantityOnHand = after.Quantity
	bal.AverageCost = after.AverageCost
	bal.UpdatedAt = pc.now
	if err := pc.repos.Balances.UpdatePosition(ctx, bal); err != nil {
		return err
	}
	if before.AverageCost.Equal(after.AverageCost) {
		return nil
	}
	return pc.repos.CostAudit.Append(ctx, &entity.CostAuditEntry{
		ID:             uuid.New().String(),
		BalanceID:      bal.ID,
		ItemID:         bal.ItemID,
		WarehouseID:    bal.WarehouseID,
		MovementID:     pc.movement.ID,
		UserID:         pc.userID,
		CostBefore:     before.AverageCost,
		CostAfter:      after.AverageCost,
		QuantityBefore: before.Quantity,
		QuantityAfter:  after.Quantity,
		CreatedAt:      pc.now,
	})
}

func (pc *publishContext) itemName(ctx context.Context, itemID string) (string, error) {
	if name, ok := pc.itemNames[itemID]; ok {
		return name, nil
	}
	item, err := pc.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return "", err
	}
	name := itemID
	if item != nil {
		name = item.Name
	}
	pc.itemNames[itemID] = name
	return name, nil
}

func snapshotOf(p inventory.Position) entity.LineSnapshot {
	return entity.LineSnapshot{Quantity: p.Quantity, AverageCost: p.AverageCost, Value: p.Value()}
}
