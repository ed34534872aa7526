package http

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
	"github.com/jhoicas/Inventario-kardex/internal/infrastructure/export"
	"github.com/jhoicas/Inventario-kardex/internal/infrastructure/pdf"
)

// Formatos de salida del kardex.
const (
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatCSV  = "csv"
)

// KardexHandler expone el kardex de un ítem en JSON, PDF o CSV (protegido).
type KardexHandler struct {
	svc            *inventory.LedgerService
	pdf            *pdf.KardexGenerator
	exportPageSize int
}

// NewKardexHandler construye el handler. exportPageSize es el tamaño de página
// usado por PDF/CSV cuando la petición no indica page_size.
func NewKardexHandler(svc *inventory.LedgerService, gen *pdf.KardexGenerator, exportPageSize int) *KardexHandler {
	if gen == nil {
		gen = pdf.NewKardexGenerator()
	}
	return &KardexHandler{svc: svc, pdf: gen, exportPageSize: exportPageSize}
}

// GetLedger godoc
// @Summary      Kardex de un ítem
// @Description  Reconstruye el kardex con saldo acumulado. Sin warehouse_id consolida todas las bodegas.
// @Tags         kardex
// @Security     Bearer
// @Produce      json
// @Produce      application/pdf
// @Produce      text/csv
// @Param        id            path   string  true   "ID del ítem"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        date_from     query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        date_to       query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        kind          query  string  false  "IN | OUT | TRANSFER | ADJUSTMENT"
// @Param        page          query  int     false  "Página"          default(1)
// @Param        page_size     query  int     false  "Tamaño de página" default(50)
// @Param        format        query  string  false  "json | pdf | csv" default(json)
// @Success      200  {object}  dto.LedgerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/kardex [get]
func (h *KardexHandler) GetLedger(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", FormatJSON))
	if format != FormatJSON && format != FormatPDF && format != FormatCSV {
		return badRequest("format debe ser json, pdf o csv")
	}

	q := dto.LedgerQuery{
		ItemID:      c.Params("id"),
		WarehouseID: c.Query("warehouse_id"),
		Kind:        strings.ToUpper(c.Query("kind")),
		Page:        c.QueryInt("page", 0),
		PageSize:    c.QueryInt("page_size", 0),
	}
	var err error
	if q.DateFrom, err = parseDate(c.Query("date_from"), false); err != nil {
		return badRequest("date_from inválida")
	}
	if q.DateTo, err = parseDate(c.Query("date_to"), true); err != nil {
		return badRequest("date_to inválida")
	}
	if format != FormatJSON && q.PageSize == 0 {
		q.PageSize = h.exportPageSize
	}

	ledger, err := h.svc.GetLedger(c.UserContext(), q)
	if err != nil {
		return err
	}

	switch format {
	case FormatPDF:
		out, err := h.pdf.Generate(ledger, pdf.KardexMeta{DateFrom: q.DateFrom, DateTo: q.DateTo, GeneratedAt: time.Now()})
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="kardex-%s.pdf"`, q.ItemID))
		return c.Send(out)
	case FormatCSV:
		var buf bytes.Buffer
		if err := export.WriteKardexCSV(&buf, ledger); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, export.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="kardex-%s.csv"`, q.ItemID))
		return c.Send(buf.Bytes())
	default:
		return c.JSON(ledger)
	}
}

// parseDate acepta YYYY-MM-DD o RFC3339. Una fecha sin hora usada como
// límite superior cubre el día completo.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
