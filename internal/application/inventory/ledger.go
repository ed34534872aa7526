package inventory

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/internal/domain/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/domain/repository"
)

// Valores por defecto de paginación del kardex.
const (
	DefaultLedgerPageSize = 50
	MaxLedgerPageSize     = 500
)

const openingDescription = "Saldo inicial"

// LedgerConfig límites de paginación.
type LedgerConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// LedgerService reconstruye el kardex de un ítem a partir de las líneas publicadas.
type LedgerService struct {
	txRunner TxRunner
	cfg      LedgerConfig
	validate *validator.Validate
}

// NewLedgerService construye el servicio; valores en cero toman los defaults.
func NewLedgerService(txRunner TxRunner, cfg LedgerConfig) *LedgerService {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultLedgerPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = MaxLedgerPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	return &LedgerService{
		txRunner: txRunner,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// GetLedger devuelve el kardex paginado. Todo el conjunto filtrado se recorre en orden
// y la página se corta al final, de modo que el saldo que entra a cualquier página
// incluye todas las filas anteriores. El resumen cubre el conjunto completo.
func (s *LedgerService) GetLedger(ctx context.Context, q dto.LedgerQuery) (*dto.LedgerResponse, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, validationError(err)
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateFrom.After(*q.DateTo) {
		return nil, domain.NewValidation("date_from debe ser anterior o igual a date_to")
	}
	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	filter := repository.LedgerFilter{ItemID: q.ItemID, WarehouseID: q.WarehouseID}
	window := ledgerWindow{from: q.DateFrom, to: q.DateTo}
	if q.Kind != "" {
		kind := entity.MovementKind(q.Kind)
		window.kind = &kind
	}

	resp := &dto.LedgerResponse{ItemID: q.ItemID}
	if q.WarehouseID != "" {
		wh := q.WarehouseID
		resp.WarehouseID = &wh
	}

	var rows []dto.LedgerRow
	var summary dto.LedgerSummary
	err := s.txRunner.RunReadOnly(ctx, func(ctx context.Context, r Repos) error {
		item, err := r.Items.GetByID(ctx, q.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NewError(domain.ErrItemNotFound, "ítem no encontrado").WithDetail("item_id", q.ItemID)
		}
		resp.ItemName, resp.ItemSKU = item.Name, item.SKU

		var opening *entity.Balance
		if q.WarehouseID != "" {
			bal, err := r.Balances.Get(ctx, q.ItemID, q.WarehouseID)
			if err != nil {
				return err
			}
			if bal != nil && bal.HasOpening() && (q.DateTo == nil || !bal.CreatedAt.After(*q.DateTo)) {
				opening = bal
			}
		}
		lines, err := r.Ledger.ListPublishedLines(ctx, filter)
		if err != nil {
			return err
		}
		rows, summary, err = replay(opening, lines, q.WarehouseID, window)
		return err
	})
	if err != nil {
		return nil, err
	}

	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	resp.Rows = []dto.LedgerRow{}
	if start < total {
		end := start + pageSize
		if end > total {
			end = total
		}
		resp.Rows = rows[start:end]
	}
	resp.Summary = summary
	resp.Pagination = dto.PageInfo{Page: page, PageSize: pageSize, TotalRows: total, TotalPages: totalPages}
	return resp, nil
}

// ledgerWindow filtros de presentación. Las líneas fuera de la ventana igual avanzan
// el saldo acumulado; solo se omiten como filas y de los totales.
type ledgerWindow struct {
	from *time.Time
	to   *time.Time
	kind *entity.MovementKind
}

// shows indica si la fila se emite.
func (w ledgerWindow) shows(date time.Time, kind entity.MovementKind) bool {
	if w.kind != nil && kind != *w.kind {
		return false
	}
	return (w.from == nil || !date.Before(*w.from)) && w.reached(date)
}

// reached indica si la fecha no pasa de date_to; esas líneas definen el saldo final.
func (w ledgerWindow) reached(date time.Time) bool {
	return w.to == nil || !date.After(*w.to)
}

// replay recorre la fila de saldo inicial (si aplica) y todas las líneas publicadas en
// orden de publicación. El saldo final del resumen es el acumulado tras la última línea
// con fecha hasta date_to, de modo que sin date_to coincide con el saldo vigente.
func replay(opening *entity.Balance, lines []repository.LedgerLine, warehouseID string, window ledgerWindow) ([]dto.LedgerRow, dto.LedgerSummary, error) {
	rows := make([]dto.LedgerRow, 0, len(lines)+1)
	running := inventory.Position{Quantity: decimal.Zero, AverageCost: decimal.Zero}
	totalIn, totalOut, openingValue := decimal.Zero, decimal.Zero, decimal.Zero

	if opening != nil {
		cost := decimal.Zero
		if opening.OpeningCost != nil {
			cost = *opening.OpeningCost
		}
		running = inventory.Position{Quantity: *opening.OpeningQuantity, AverageCost: cost}
		if window.kind == nil && window.shows(opening.CreatedAt, "") {
			in := legDetail(*opening.OpeningQuantity, cost)
			openingValue = in.Value
			rows = append(rows, dto.LedgerRow{
				Date:         opening.CreatedAt,
				Description:  openingDescription,
				Kind:         dto.LedgerKindOpening,
				Inbound:      &in,
				Balance:      balanceOf(running),
				FromSnapshot: true,
			})
		}
	}
	final := running

	for _, l := range lines {
		legs := classify(l, warehouseID)
		if len(legs) == 0 {
			continue
		}
		movementID := l.MovementID
		row := dto.LedgerRow{
			Date:         l.Date,
			Description:  describe(l, legs, warehouseID),
			Reference:    optionalText(l.Reference),
			MovementID:   &movementID,
			Kind:         string(l.Kind),
			FromSnapshot: true,
		}
		for _, lg := range legs {
			step := stepFor(lg)
			next, detail, err := step.apply(running)
			if err != nil {
				return nil, dto.LedgerSummary{}, err
			}
			running = next
			row.FromSnapshot = row.FromSnapshot && step.fromSnapshot()
			d := detail
			if lg.direction == legInbound {
				row.Inbound = &d
			} else {
				row.Outbound = &d
			}
		}
		row.Balance = balanceOf(running)
		if window.reached(l.Date) {
			final = running
		}
		if !window.shows(l.Date, l.Kind) {
			continue
		}
		if row.Inbound != nil {
			totalIn = totalIn.Add(row.Inbound.Value)
		}
		if row.Outbound != nil {
			totalOut = totalOut.Add(row.Outbound.Value)
		}
		rows = append(rows, row)
	}

	return rows, dto.LedgerSummary{
		OpeningValue:       openingValue,
		TotalInboundValue:  totalIn,
		TotalOutboundValue: totalOut,
		FinalQuantity:      final.Quantity,
		FinalAverageCost:   final.AverageCost,
		FinalValue:         final.Value(),
	}, nil
}

// classify piernas de la línea relativas a la bodega consultada. Sin bodega, un traslado
// produce salida y entrada (cantidad neta cero) y siempre se recalcula, porque los snapshots
// son por bodega.
func classify(l repository.LedgerLine, warehouseID string) []ledgerLeg {
	if warehouseID == "" {
		var legs []ledgerLeg
		switch l.Kind {
		case entity.MovementKindInbound:
			legs = append(legs, ledgerLeg{direction: legInbound, quantity: l.Quantity, unitCost: l.UnitCost})
		case entity.MovementKindOutbound:
			legs = append(legs, ledgerLeg{direction: legOutbound, quantity: l.Quantity, unitCost: l.UnitCost})
		case entity.MovementKindTransfer:
			legs = append(legs,
				ledgerLeg{direction: legOutbound, quantity: l.Quantity, unitCost: l.UnitCost},
				ledgerLeg{direction: legInbound, quantity: l.Quantity, unitCost: l.UnitCost},
			)
		}
		return legs
	}

	var legs []ledgerLeg
	if l.SourceWarehouseID != nil && *l.SourceWarehouseID == warehouseID {
		legs = append(legs, ledgerLeg{direction: legOutbound, quantity: l.Quantity, unitCost: l.UnitCost, snapshot: l.Origin})
	}
	if l.DestinationWarehouseID != nil && *l.DestinationWarehouseID == warehouseID {
		legs = append(legs, ledgerLeg{direction: legInbound, quantity: l.Quantity, unitCost: l.UnitCost, snapshot: l.Destination})
	}
	return legs
}

func describe(l repository.LedgerLine, legs []ledgerLeg, warehouseID string) string {
	label := l.Kind.Label()
	if l.Kind == entity.MovementKindTransfer {
		switch {
		case warehouseID == "":
			label = "Traslado entre bodegas"
		case legs[0].direction == legInbound:
			label = "Traslado recibido"
		default:
			label = "Traslado enviado"
		}
	}
	if l.Subkind != "" {
		label += " (" + l.Subkind + ")"
	}
	return label
}

func balanceOf(p inventory.Position) dto.LedgerBalance {
	return dto.LedgerBalance{Quantity: p.Quantity, AverageCost: p.AverageCost, Value: p.Value()}
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
