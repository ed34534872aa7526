// Package export serializa el kardex para hojas de cálculo.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
)

// ContentType del CSV generado.
const ContentType = "text/csv; charset=windows-1252"

var header = []string{
	"Fecha", "Detalle", "Referencia", "Movimiento", "Tipo",
	"Entrada cantidad", "Entrada costo unitario", "Entrada valor",
	"Salida cantidad", "Salida costo unitario", "Salida valor",
	"Saldo cantidad", "Costo promedio", "Saldo valor",
}

// WriteKardexCSV escribe el kardex en Windows-1252 separado por ';' (Excel en español).
// Los caracteres sin representación en la página de códigos se reemplazan.
func WriteKardexCSV(w io.Writer, ledger *dto.LedgerResponse) error {
	if ledger == nil {
		return fmt.Errorf("export: kardex vacío")
	}
	enc := transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
	writer := csv.NewWriter(enc)
	writer.Comma = ';'
	writer.UseCRLF = true

	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range ledger.Rows {
		record := []string{
			r.Date.Format("2006-01-02"),
			r.Description,
			deref(r.Reference),
			deref(r.MovementID),
			r.Kind,
		}
		record = append(record, legFields(r.Inbound)...)
		record = append(record, legFields(r.Outbound)...)
		record = append(record,
			number(r.Balance.Quantity),
			number(r.Balance.AverageCost),
			number(r.Balance.Value),
		)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	s := ledger.Summary
	if !s.OpeningValue.IsZero() {
		if err := writer.Write([]string{
			"", "Saldo inicial", "", "", "",
			"", "", number(s.OpeningValue),
			"", "", "",
			"", "", "",
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{
		"", "Totales", "", "", "",
		"", "", number(s.TotalInboundValue),
		"", "", number(s.TotalOutboundValue),
		number(s.FinalQuantity), number(s.FinalAverageCost), number(s.FinalValue),
	}); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return enc.Close()
}

func legFields(l *dto.LedgerLeg) []string {
	if l == nil {
		return []string{"", "", ""}
	}
	return []string{number(l.Quantity), number(l.UnitCost), number(l.Value)}
}

// number usa coma decimal sin separador de miles.
func number(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
