package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/infrastructure/memory"
)

const (
	userID   = "user-1"
	itemA    = "item-a"
	itemB    = "item-b"
	bodegaA  = "wh-a"
	bodegaB  = "wh-b"
	noExiste = "no-existe"
)

type fixture struct {
	store    *memory.Store
	movs     *inventory.MovementService
	balances *inventory.BalanceService
	ledger   *inventory.LedgerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddItem(entity.Item{ID: itemA, SKU: "TOR-01", Name: "Tornillo"})
	store.AddItem(entity.Item{ID: itemB, SKU: "TUE-02", Name: "Tuerca"})
	store.AddWarehouse(entity.Warehouse{ID: bodegaA, Name: "Principal"})
	store.AddWarehouse(entity.Warehouse{ID: bodegaB, Name: "Sucursal"})
	return &fixture{
		store:    store,
		movs:     inventory.NewMovementService(store, nil, nil),
		balances: inventory.NewBalanceService(store, nil, nil),
		ledger:   inventory.NewLedgerService(store, inventory.LedgerConfig{}),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domain.CodeOf(err), "error: %v", err)
}

func (f *fixture) draftIn(t *testing.T, warehouseID string, lines ...dto.MovementLineInput) *dto.MovementResult {
	t.Helper()
	res, err := f.movs.Create(context.Background(), dto.CreateMovementInput{
		UserID:                 userID,
		Kind:                   "IN",
		DestinationWarehouseID: strPtr(warehouseID),
		Lines:                  lines,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) publishIn(t *testing.T, warehouseID, itemID, qty, cost string) string {
	t.Helper()
	res := f.draftIn(t, warehouseID, dto.MovementLineInput{ItemID: itemID, Quantity: dec(qty), UnitCost: decPtr(cost)})
	_, err := f.movs.Publish(context.Background(), res.Movement.ID, userID, false)
	require.NoError(t, err)
	return res.Movement.ID
}

func (f *fixture) publishOut(t *testing.T, warehouseID, itemID, qty string) string {
	t.Helper()
	res, err := f.movs.Create(context.Background(), dto.CreateMovementInput{
		UserID:            userID,
		Kind:              "OUT",
		SourceWarehouseID: strPtr(warehouseID),
		Lines:             []dto.MovementLineInput{{ItemID: itemID, Quantity: dec(qty)}},
	})
	require.NoError(t, err)
	_, err = f.movs.Publish(context.Background(), res.Movement.ID, userID, false)
	require.NoError(t, err)
	return res.Movement.ID
}

func (f *fixture) publishTransfer(t *testing.T, from, to, itemID, qty string) string {
	t.Helper()
	res, err := f.movs.Create(context.Background(), dto.CreateMovementInput{
		UserID:                 userID,
		Kind:                   "TRANSFER",
		SourceWarehouseID:      strPtr(from),
		DestinationWarehouseID: strPtr(to),
		Lines:                  []dto.MovementLineInput{{ItemID: itemID, Quantity: dec(qty)}},
	})
	require.NoError(t, err)
	_, err = f.movs.Publish(context.Background(), res.Movement.ID, userID, false)
	require.NoError(t, err)
	return res.Movement.ID
}

func (f *fixture) balance(t *testing.T, itemID, warehouseID string) entity.Balance {
	t.Helper()
	b, ok := f.store.Balance(itemID, warehouseID)
	require.True(t, ok, "saldo %s@%s inexistente", itemID, warehouseID)
	return b
}
