// Package pdf genera la representación imprimible del kardex de un ítem.
//
// Layout de la página A4 horizontal:
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│  HEADER: Ítem (SKU + nombre)  │  Bodega + rango de fechas              │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Detalle | Ref | Entradas (C/CU/V) | Salidas | Saldo   │
//	│  ──────────────────────────────────────────────────────────────────  │
//	│  RESUMEN: Total entradas / Total salidas / Saldo final                │
//	└──────────────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// KardexMeta datos de cabecera que no viajan en el kardex.
type KardexMeta struct {
	WarehouseName string
	DateFrom      *time.Time
	DateTo        *time.Time
	GeneratedAt   time.Time
}

// KardexGenerator genera el PDF del kardex usando Maroto v2.
type KardexGenerator struct{}

// NewKardexGenerator construye el generador.
func NewKardexGenerator() *KardexGenerator { return &KardexGenerator{} }

// Generate genera el PDF y devuelve sus bytes.
func (g *KardexGenerator) Generate(ledger *dto.LedgerResponse, meta KardexMeta) ([]byte, error) {
	if ledger == nil {
		return nil, fmt.Errorf("pdf: kardex vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Kardex "+ledger.ItemName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(ledger, meta))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.2}))
	m.AddRows(tableRows(ledger.Rows)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(ledger.Summary))
	m.AddRows(footerRow(ledger.Pagination, meta))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(ledger *dto.LedgerResponse, meta KardexMeta) core.Row {
	item := ledger.ItemName
	if ledger.ItemSKU != "" {
		item = ledger.ItemSKU + " · " + ledger.ItemName
	}
	warehouse := "Todas las bodegas"
	if meta.WarehouseName != "" {
		warehouse = "Bodega: " + meta.WarehouseName
	} else if ledger.WarehouseID != nil {
		warehouse = "Bodega: " + *ledger.WarehouseID
	}

	return row.New(16).Add(
		col.New(7).Add(
			text.New("KARDEX DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(item, props.Text{
				Style: fontstyle.Bold, Size: 12, Top: 6,
			}),
		),
		col.New(5).Add(
			text.New(warehouse, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1,
			}),
			text.New(periodLabel(meta.DateFrom, meta.DateTo), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

var tableCols = []struct {
	label string
	size  int
	align align.Type
}{
	{"Fecha", 1, align.Left},
	{"Detalle", 2, align.Left},
	{"Ref.", 1, align.Left},
	{"Ent. cant.", 1, align.Right},
	{"Ent. valor", 1, align.Right},
	{"Sal. cant.", 1, align.Right},
	{"Sal. valor", 1, align.Right},
	{"C. unit.", 1, align.Right},
	{"Saldo cant.", 1, align.Right},
	{"C. prom.", 1, align.Right},
	{"Saldo valor", 1, align.Right},
}

func tableHeaderRow() core.Row {
	cols := make([]core.Col, len(tableCols))
	for i, c := range tableCols {
		cols[i] = col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: c.align, Color: colorPrimary, Top: 1, Right: 1,
		}))
	}
	return row.New(6).Add(cols...)
}

func tableRows(rows []dto.LedgerRow) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		values := []string{
			r.Date.Format("02/01/2006"),
			r.Description,
			deref(r.Reference),
			legQty(r.Inbound),
			legValue(r.Inbound),
			legQty(r.Outbound),
			legValue(r.Outbound),
			unitCost(r),
			formatAmount(r.Balance.Quantity, 2),
			formatAmount(r.Balance.AverageCost, 4),
			formatAmount(r.Balance.Value, 2),
		}
		cols := make([]core.Col, len(values))
		for i, v := range values {
			cols[i] = col.New(tableCols[i].size).Add(text.New(v, props.Text{
				Size: 7, Align: tableCols[i].align, Top: 1, Right: 1,
			}))
		}
		out = append(out, row.New(5).Add(cols...))
	}
	return out
}

func summaryRow(s dto.LedgerSummary) core.Row {
	// maroto apila los componentes de una columna en el mismo origen; Top los separa.
	label := func(v string, line int) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2, Top: float64(line) * 5})
	}
	value := func(v string, line int) core.Component {
		return text.New(v, props.Text{Size: 8, Align: align.Right, Right: 1, Top: float64(line) * 5})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Saldo inicial:", 0),
			label("Total entradas:", 1),
			label("Total salidas:", 2),
			label("Saldo final:", 3),
		),
		col.New(3).Add(
			value("$"+formatAmount(s.OpeningValue, 2), 0),
			value("$"+formatAmount(s.TotalInboundValue, 2), 1),
			value("$"+formatAmount(s.TotalOutboundValue, 2), 2),
			value(fmt.Sprintf("%s u. × $%s = $%s",
				formatAmount(s.FinalQuantity, 2),
				formatAmount(s.FinalAverageCost, 4),
				formatAmount(s.FinalValue, 2)), 3),
		),
	)
}

func footerRow(p dto.PageInfo, meta KardexMeta) core.Row {
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return row.New(6).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Página %d de %d · %d movimientos · generado %s",
			p.Page, maxInt(p.TotalPages, 1), p.TotalRows, generated.Format("02/01/2006 15:04")),
			props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func periodLabel(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return "Del " + from.Format("02/01/2006") + " al " + to.Format("02/01/2006")
	case from != nil:
		return "Desde " + from.Format("02/01/2006")
	case to != nil:
		return "Hasta " + to.Format("02/01/2006")
	default:
		return "Todo el historial"
	}
}

func legQty(l *dto.LedgerLeg) string {
	if l == nil {
		return ""
	}
	return formatAmount(l.Quantity, 2)
}

func legValue(l *dto.LedgerLeg) string {
	if l == nil {
		return ""
	}
	return formatAmount(l.Value, 2)
}

func unitCost(r dto.LedgerRow) string {
	switch {
	case r.Inbound != nil:
		return formatAmount(r.Inbound.UnitCost, 4)
	case r.Outbound != nil:
		return formatAmount(r.Outbound.UnitCost, 4)
	default:
		return ""
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// formatAmount redondea a places decimales con puntos de miles y coma decimal.
// Ej: 1234567.891 (2) → "1.234.567,89"
func formatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	out := sign + formatMoney(intPart)
	if frac != "" {
		out += "," + frac
	}
	return out
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
