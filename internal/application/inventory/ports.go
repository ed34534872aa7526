package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Movements  repository.MovementRepository
	Balances   repository.BalanceRepository
	CostAudit  repository.CostAuditRepository
	Audit      repository.AuditEventRepository
	Ledger     repository.LedgerRepository
	Items      repository.ItemRepository
	Warehouses repository.WarehouseRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Run confirma si fn no devuelve error y revierte en caso contrario.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
	// RunReadOnly abre una transacción de solo lectura con lectura repetible (kardex consistente).
	RunReadOnly(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// CostCache caché opcional de costos promedio por (bodega, ítem).
// Los errores de caché nunca deben ocultar el resultado de negocio.
type CostCache interface {
	GetMany(ctx context.Context, warehouseID string, itemIDs []string) (map[string]dto.AverageCost, error)
	// FillMany escribe solo las claves ausentes: una lectura tardía nunca pisa un valor más nuevo.
	FillMany(ctx context.Context, warehouseID string, costs map[string]dto.AverageCost) error
	// PutMany sobrescribe con los valores confirmados tras una escritura de saldos.
	PutMany(ctx context.Context, costs map[entity.BalanceKey]dto.AverageCost) error
}
