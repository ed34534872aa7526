package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// recordingQuerier registra las sentencias ejecutadas, en orden.
type recordingQuerier struct {
	calls []recordedCall
}

type recordedCall struct {
	sql  string
	args []any
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, recordedCall{sql: sql, args: args})
	return pgconn.NewCommandTag("SELECT 1"), nil
}

func (q *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (q *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func TestLockKeys_InsertaYBloqueaEnOrden(t *testing.T) {
	q := &recordingQuerier{}
	repo := NewBalanceRepository(q)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := repo.LockKeys(context.Background(), []entity.BalanceLock{
		{Key: entity.BalanceKey{ItemID: "a", WarehouseID: "wh-1"}},
		{Key: entity.BalanceKey{ItemID: "b", WarehouseID: "wh-2"}, Create: true},
	}, now)
	require.NoError(t, err)
	require.Len(t, q.calls, 3)

	assert.Contains(t, q.calls[0].sql, "FOR UPDATE")
	assert.Equal(t, []any{"a", "wh-1"}, q.calls[0].args)

	assert.Contains(t, q.calls[1].sql, "ON CONFLICT (item_id, warehouse_id) DO NOTHING")
	assert.Equal(t, "b", q.calls[1].args[1])
	assert.Equal(t, "wh-2", q.calls[1].args[2])
	assert.Equal(t, now, q.calls[1].args[3])

	assert.True(t, strings.Contains(q.calls[2].sql, "FOR UPDATE"), "la fila nueva se bloquea antes de pasar a la siguiente clave")
	assert.Equal(t, []any{"b", "wh-2"}, q.calls[2].args)
}
