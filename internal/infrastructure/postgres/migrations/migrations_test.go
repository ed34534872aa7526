package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContieneEsquemaInicial(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	raw, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)
	sql := string(raw)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "-- +goose Down")
	for _, table := range []string{"inventory_balances", "movements", "movement_lines", "cost_audit_log", "audit_events"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, sql, "UNIQUE (item_id, warehouse_id)")
}

func TestFS_OrdenDePublicacion(t *testing.T) {
	raw, err := fs.ReadFile(FS, "00002_published_seq.sql")
	require.NoError(t, err)
	sql := string(raw)
	assert.True(t, strings.HasPrefix(sql, "-- +goose Up"))
	assert.Contains(t, sql, "CREATE SEQUENCE IF NOT EXISTS movements_published_seq")
	assert.Contains(t, sql, "ADD COLUMN IF NOT EXISTS published_seq BIGINT")
	assert.Contains(t, sql, "-- +goose Down")
}
