package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostAuditEntry registro inmutable de un cambio de costo promedio causado por una publicación.
type CostAuditEntry struct {
	ID             string
	BalanceID      string
	ItemID         string
	WarehouseID    string
	MovementID     string
	UserID         string
	CostBefore     decimal.Decimal
	CostAfter      decimal.Decimal
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	CreatedAt      time.Time
}
