package inventory_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	infracache "github.com/jhoicas/Inventario-kardex/internal/infrastructure/cache"
)

type mockCostCache struct{ mock.Mock }

func (m *mockCostCache) GetMany(ctx context.Context, warehouseID string, itemIDs []string) (map[string]dto.AverageCost, error) {
	args := m.Called(ctx, warehouseID, itemIDs)
	out, _ := args.Get(0).(map[string]dto.AverageCost)
	return out, args.Error(1)
}

func (m *mockCostCache) FillMany(ctx context.Context, warehouseID string, costs map[string]dto.AverageCost) error {
	return m.Called(ctx, warehouseID, costs).Error(0)
}

func (m *mockCostCache) PutMany(ctx context.Context, costs map[entity.BalanceKey]dto.AverageCost) error {
	return m.Called(ctx, costs).Error(0)
}

// readHookRunner ejecuta after una sola vez, justo después de la primera lectura.
type readHookRunner struct {
	inventory.TxRunner
	after func()
	done  bool
}

func (r *readHookRunner) RunReadOnly(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	err := r.TxRunner.RunReadOnly(ctx, fn)
	if !r.done {
		r.done = true
		r.after()
	}
	return err
}

func TestAssignItem_CreaSaldoInicial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.balances.AssignItem(ctx, dto.AssignItemInput{
		ItemID: itemA, WarehouseID: bodegaA, InitialQuantity: dec("8"), InitialCost: dec("2.5"),
		MinThreshold: decPtr("10"),
	})
	require.NoError(t, err)
	assert.True(t, res.TotalValue.Equal(dec("20")))

	b := f.balance(t, itemA, bodegaA)
	require.NotNil(t, b.OpeningQuantity)
	assert.True(t, b.OpeningQuantity.Equal(dec("8")))
	assert.True(t, b.OpeningCost.Equal(dec("2.5")))

	_, err = f.balances.AssignItem(ctx, dto.AssignItemInput{ItemID: itemA, WarehouseID: bodegaA})
	requireCode(t, err, domain.CodeConflict)

	_, err = f.balances.AssignItem(ctx, dto.AssignItemInput{ItemID: noExiste, WarehouseID: bodegaA})
	requireCode(t, err, domain.CodeItemNotFound)

	_, err = f.balances.AssignItem(ctx, dto.AssignItemInput{ItemID: itemB, WarehouseID: noExiste})
	requireCode(t, err, domain.CodeNotFound)

	_, err = f.balances.AssignItem(ctx, dto.AssignItemInput{ItemID: itemB, WarehouseID: bodegaA, InitialQuantity: dec("-1")})
	requireCode(t, err, domain.CodeValidation)
}

func TestUpdateThresholds_MaximoMenorQueMinimo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.balances.AssignItem(ctx, dto.AssignItemInput{ItemID: itemA, WarehouseID: bodegaA})
	require.NoError(t, err)

	_, err = f.balances.UpdateThresholds(ctx, itemA, bodegaA, dto.ThresholdsInput{MinThreshold: decPtr("10"), MaxThreshold: decPtr("5")})
	requireCode(t, err, domain.CodeValidation)

	res, err := f.balances.UpdateThresholds(ctx, itemA, bodegaA, dto.ThresholdsInput{MinThreshold: decPtr("5"), MaxThreshold: decPtr("10")})
	require.NoError(t, err)
	assert.True(t, res.MaxThreshold.Equal(dec("10")))
	assert.True(t, f.balance(t, itemA, bodegaA).MinThreshold.Equal(dec("5")))

	_, err = f.balances.UpdateThresholds(ctx, itemB, bodegaA, dto.ThresholdsInput{})
	requireCode(t, err, domain.CodeNotFound)
}

func TestUnassignItem_ConservaHistorial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publishIn(t, bodegaA, itemA, "2", "3")

	require.NoError(t, f.balances.UnassignItem(ctx, itemA, bodegaA))
	_, ok := f.store.Balance(itemA, bodegaA)
	assert.False(t, ok)

	err := f.balances.UnassignItem(ctx, itemA, bodegaA)
	requireCode(t, err, domain.CodeNotFound)

	res, err := f.ledger.GetLedger(ctx, dto.LedgerQuery{ItemID: itemA, WarehouseID: bodegaA})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestGetAverageCosts_CerosYBajoMinimo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.balances.AssignItem(ctx, dto.AssignItemInput{
		ItemID: itemA, WarehouseID: bodegaA, InitialQuantity: dec("3"), InitialCost: dec("7"), MinThreshold: decPtr("5"),
	})
	require.NoError(t, err)

	costs, err := f.balances.GetAverageCosts(ctx, bodegaA, []string{itemA, itemB, itemA})
	require.NoError(t, err)
	require.Len(t, costs, 2)
	assert.True(t, costs[itemA].AverageCost.Equal(dec("7")))
	assert.True(t, costs[itemA].TotalValue.Equal(dec("21")))
	assert.True(t, costs[itemA].BelowMinimum)
	assert.True(t, costs[itemB].AverageCost.IsZero())
	assert.True(t, costs[itemB].QuantityOnHand.IsZero())
	assert.False(t, costs[itemB].BelowMinimum)

	_, err = f.balances.GetAverageCosts(ctx, "", []string{itemA})
	requireCode(t, err, domain.CodeValidation)
}

func TestGetAverageCosts_LeeDeCacheYCompletaFaltantes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publishIn(t, bodegaA, itemB, "4", "6")

	cache := new(mockCostCache)
	cached := dto.AverageCost{AverageCost: dec("1"), QuantityOnHand: dec("1"), TotalValue: dec("1")}
	cache.On("GetMany", mock.Anything, bodegaA, []string{itemA, itemB}).
		Return(map[string]dto.AverageCost{itemA: cached}, nil)
	cache.On("FillMany", mock.Anything, bodegaA, mock.MatchedBy(func(m map[string]dto.AverageCost) bool {
		_, hasA := m[itemA]
		return len(m) == 1 && !hasA && m[itemB].AverageCost.Equal(dec("6"))
	})).Return(nil)

	svc := inventory.NewBalanceService(f.store, cache, nil)
	costs, err := svc.GetAverageCosts(ctx, bodegaA, []string{itemA, itemB})
	require.NoError(t, err)
	assert.Equal(t, cached, costs[itemA])
	assert.True(t, costs[itemB].QuantityOnHand.Equal(dec("4")))
	cache.AssertExpectations(t)
}

func TestPublish_EscribeCostosConfirmadosEnCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := new(mockCostCache)
	cache.On("PutMany", mock.Anything, mock.MatchedBy(func(m map[entity.BalanceKey]dto.AverageCost) bool {
		a := m[entity.BalanceKey{ItemID: itemA, WarehouseID: bodegaA}]
		b := m[entity.BalanceKey{ItemID: itemB, WarehouseID: bodegaA}]
		return len(m) == 2 && a.QuantityOnHand.Equal(dec("1")) && b.AverageCost.Equal(dec("3"))
	})).Return(assert.AnError)

	svc := inventory.NewMovementService(f.store, cache, nil)
	draft := f.draftIn(t, bodegaA,
		dto.MovementLineInput{ItemID: itemB, Quantity: dec("2"), UnitCost: decPtr("3")},
		dto.MovementLineInput{ItemID: itemA, Quantity: dec("1"), UnitCost: decPtr("1")},
	)

	// un fallo de caché no afecta el resultado de la publicación
	res, err := svc.Publish(ctx, draft.Movement.ID, userID, false)
	require.NoError(t, err)
	assert.Equal(t, string(entity.MovementStatePublished), res.State)
	cache.AssertExpectations(t)
}

func TestGetAverageCosts_LecturaTardiaNoPisaPublicacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	costCache := infracache.NewCostCache(client, time.Minute)

	f.publishIn(t, bodegaA, itemA, "10", "5")
	pendiente := f.draftIn(t, bodegaA, dto.MovementLineInput{ItemID: itemA, Quantity: dec("10"), UnitCost: decPtr("7")})
	movs := inventory.NewMovementService(f.store, costCache, nil)

	// la publicación confirma entre la lectura de BD y el llenado de la caché
	runner := &readHookRunner{TxRunner: f.store, after: func() {
		_, err := movs.Publish(ctx, pendiente.Movement.ID, userID, false)
		require.NoError(t, err)
	}}
	svc := inventory.NewBalanceService(runner, costCache, nil)

	first, err := svc.GetAverageCosts(ctx, bodegaA, []string{itemA})
	require.NoError(t, err)
	assert.True(t, first[itemA].AverageCost.Equal(dec("5")), "la primera lectura es previa a la publicación")

	second, err := svc.GetAverageCosts(ctx, bodegaA, []string{itemA})
	require.NoError(t, err)
	b := f.balance(t, itemA, bodegaA)
	assert.True(t, second[itemA].AverageCost.Equal(b.AverageCost), "caché %s, saldo %s", second[itemA].AverageCost, b.AverageCost)
	assert.True(t, second[itemA].QuantityOnHand.Equal(dec("20")))
}

func TestUnassignItem_CacheQuedaEnCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.balances.AssignItem(ctx, dto.AssignItemInput{
		ItemID: itemA, WarehouseID: bodegaA, InitialQuantity: dec("2"), InitialCost: dec("3"),
	})
	require.NoError(t, err)

	cache := new(mockCostCache)
	cache.On("PutMany", mock.Anything, mock.MatchedBy(func(m map[entity.BalanceKey]dto.AverageCost) bool {
		c, ok := m[entity.BalanceKey{ItemID: itemA, WarehouseID: bodegaA}]
		return ok && c.QuantityOnHand.IsZero() && c.AverageCost.IsZero()
	})).Return(nil)

	svc := inventory.NewBalanceService(f.store, cache, nil)
	require.NoError(t, svc.UnassignItem(ctx, itemA, bodegaA))
	cache.AssertExpectations(t)
}
