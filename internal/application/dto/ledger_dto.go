package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerQuery filtros del kardex de un ítem.
type LedgerQuery struct {
	ItemID      string     `validate:"required"`
	WarehouseID string
	DateFrom    *time.Time
	DateTo      *time.Time
	Kind        string `validate:"omitempty,oneof=IN OUT TRANSFER ADJUSTMENT"`
	Page        int    `validate:"min=0"`
	PageSize    int    `validate:"min=0"`
}

// LedgerLeg pierna de entrada o salida de una fila.
type LedgerLeg struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Value    decimal.Decimal `json:"value"`
}

// LedgerBalance saldo acumulado tras la fila.
type LedgerBalance struct {
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
}

// LedgerRow fila del kardex.
type LedgerRow struct {
	Date         time.Time     `json:"date"`
	Description  string        `json:"description"`
	Reference    *string       `json:"reference,omitempty"`
	MovementID   *string       `json:"movement_id,omitempty"`
	Kind         string        `json:"kind"`
	Inbound      *LedgerLeg    `json:"inbound,omitempty"`
	Outbound     *LedgerLeg    `json:"outbound,omitempty"`
	Balance      LedgerBalance `json:"balance"`
	FromSnapshot bool          `json:"from_snapshot"`
}

// LedgerSummary totales sobre todo el conjunto filtrado (no sólo la página).
// OpeningValue es el valor de la fila de saldo inicial y no entra en TotalInboundValue.
type LedgerSummary struct {
	OpeningValue       decimal.Decimal `json:"opening_value"`
	TotalInboundValue  decimal.Decimal `json:"total_inbound_value"`
	TotalOutboundValue decimal.Decimal `json:"total_outbound_value"`
	FinalQuantity      decimal.Decimal `json:"final_quantity"`
	FinalAverageCost   decimal.Decimal `json:"final_average_cost"`
	FinalValue         decimal.Decimal `json:"final_value"`
}

// LedgerResponse kardex paginado.
type LedgerResponse struct {
	ItemID      string        `json:"item_id"`
	ItemSKU     string        `json:"item_sku,omitempty"`
	ItemName    string        `json:"item_name"`
	WarehouseID *string       `json:"warehouse_id,omitempty"`
	Rows        []LedgerRow   `json:"rows"`
	Summary     LedgerSummary `json:"summary"`
	Pagination  PageInfo      `json:"pagination"`
}

// LedgerKindOpening tipo de la fila virtual de saldo inicial.
const LedgerKindOpening = "OPENING"
