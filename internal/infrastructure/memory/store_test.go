package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
)

func TestStore_RunConfirmaCambios(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.Run(ctx, func(ctx context.Context, r inventory.Repos) error {
		b, err := r.Balances.GetOrCreateForUpdate(ctx, "item-a", "wh-a", time.Now())
		if err != nil {
			return err
		}
		b.QuantityOnHand = decimal.NewFromInt(7)
		return r.Balances.UpdatePosition(ctx, b)
	})
	require.NoError(t, err)

	b, ok := s.Balance("item-a", "wh-a")
	require.True(t, ok)
	assert.True(t, b.QuantityOnHand.Equal(decimal.NewFromInt(7)))
}

func TestStore_RunDescartaAlFallar(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	err := s.Run(context.Background(), func(ctx context.Context, r inventory.Repos) error {
		if _, err := r.Balances.GetOrCreateForUpdate(ctx, "item-a", "wh-a", time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := s.Balance("item-a", "wh-a")
	assert.False(t, ok, "el saldo creado dentro de la transacción fallida no debe persistir")
}

func TestStore_RunReadOnlyNuncaConfirma(t *testing.T) {
	s := NewStore()
	err := s.RunReadOnly(context.Background(), func(ctx context.Context, r inventory.Repos) error {
		_, err := r.Balances.GetOrCreateForUpdate(ctx, "item-a", "wh-a", time.Now())
		return err
	})
	require.NoError(t, err)

	_, ok := s.Balance("item-a", "wh-a")
	assert.False(t, ok)
}

func TestStore_ContextoCancelado(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Run(ctx, func(context.Context, inventory.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
