package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
)

var tracer = otel.Tracer("inventario-kardex/postgres")

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción read committed, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los bloqueos de fila (SELECT ... FOR UPDATE) los toman los repositorios.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	return r.run(ctx, "tx.run", pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}, fn)
}

// RunReadOnly transacción repeatable read de solo lectura: todas las consultas ven la misma foto.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	return r.run(ctx, "tx.read_only", pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, name string, opts pgx.TxOptions, fn func(ctx context.Context, repos inventory.Repos) error) error {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("tx.isolation", string(opts.IsoLevel)),
		attribute.String("tx.access_mode", string(opts.AccessMode)),
	))
	defer span.End()

	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		span.SetStatus(codes.Error, "begin")
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback con contexto propio: debe completarse aunque ctx se haya cancelado.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(ctx, NewRepos(tx)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rollback")
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		span.SetStatus(codes.Error, "commit")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos arma los repositorios sobre un Querier (pool o tx).
func NewRepos(q Querier) inventory.Repos {
	return inventory.Repos{
		Movements:  NewMovementRepository(q),
		Balances:   NewBalanceRepository(q),
		CostAudit:  NewCostAuditRepository(q),
		Audit:      NewAuditEventRepository(q),
		Ledger:     NewLedgerRepository(q),
		Items:      NewItemRepository(q),
		Warehouses: NewWarehouseRepository(q),
	}
}
