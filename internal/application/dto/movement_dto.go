package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
)

// MovementLineInput línea de un documento en borrador.
// UnitCost es obligatorio en entradas (IN); en salidas y traslados se ignora.
type MovementLineInput struct {
	ItemID   string           `json:"item_id" validate:"required"`
	Quantity decimal.Decimal  `json:"quantity"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreateMovementInput entrada para crear un movimiento en borrador.
type CreateMovementInput struct {
	UserID                 string              `json:"-" validate:"required"`
	Kind                   string              `json:"kind" validate:"required,oneof=IN OUT TRANSFER ADJUSTMENT"`
	Subkind                string              `json:"subkind,omitempty" validate:"max=40"`
	Date                   *time.Time          `json:"date,omitempty"`
	SourceWarehouseID      *string             `json:"source_warehouse_id,omitempty"`
	DestinationWarehouseID *string             `json:"destination_warehouse_id,omitempty"`
	ThirdPartyID           *string             `json:"third_party_id,omitempty"`
	Reference              string              `json:"reference,omitempty" validate:"max=120"`
	Notes                  string              `json:"notes,omitempty" validate:"max=1000"`
	Lines                  []MovementLineInput `json:"lines" validate:"required,min=1,dive"`
}

// MovementPatch cambios sobre un borrador. Campos nil no se modifican;
// un puntero a cadena vacía limpia el campo. Lines no nil reemplaza todas las líneas.
type MovementPatch struct {
	Version                int                 `json:"version" validate:"min=1"`
	Subkind                *string             `json:"subkind,omitempty" validate:"omitempty,max=40"`
	Date                   *time.Time          `json:"date,omitempty"`
	SourceWarehouseID      *string             `json:"source_warehouse_id,omitempty"`
	DestinationWarehouseID *string             `json:"destination_warehouse_id,omitempty"`
	ThirdPartyID           *string             `json:"third_party_id,omitempty"`
	Reference              *string             `json:"reference,omitempty" validate:"omitempty,max=120"`
	Notes                  *string             `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Lines                  []MovementLineInput `json:"lines,omitempty" validate:"dive"`
}

// PublishRequest cuerpo de POST /movements/:id/publish.
type PublishRequest struct {
	AllowNegative *bool `json:"allow_negative,omitempty"`
}

// VoidRequest cuerpo de POST /movements/:id/void.
type VoidRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// StockWarning aviso no bloqueante de stock insuficiente en un borrador.
type StockWarning struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}

// SnapshotResponse estado del saldo tras aplicar una línea.
type SnapshotResponse struct {
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
}

// MovementLineResponse línea en respuestas.
type MovementLineResponse struct {
	ID          string            `json:"id"`
	ItemID      string            `json:"item_id"`
	Quantity    decimal.Decimal   `json:"quantity"`
	UnitCost    *decimal.Decimal  `json:"unit_cost,omitempty"`
	LineTotal   *decimal.Decimal  `json:"line_total,omitempty"`
	Origin      *SnapshotResponse `json:"origin,omitempty"`
	Destination *SnapshotResponse `json:"destination,omitempty"`
}

// MovementResponse documento de movimiento en respuestas.
type MovementResponse struct {
	ID                     string                 `json:"id"`
	Kind                   string                 `json:"kind"`
	Subkind                string                 `json:"subkind,omitempty"`
	State                  string                 `json:"state"`
	Date                   time.Time              `json:"date"`
	SourceWarehouseID      *string                `json:"source_warehouse_id,omitempty"`
	DestinationWarehouseID *string                `json:"destination_warehouse_id,omitempty"`
	ThirdPartyID           *string                `json:"third_party_id,omitempty"`
	Reference              string                 `json:"reference,omitempty"`
	Notes                  string                 `json:"notes,omitempty"`
	UserID                 string                 `json:"user_id"`
	Version                int                    `json:"version"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
	Lines                  []MovementLineResponse `json:"lines"`
}

// MovementResult respuesta de crear/actualizar un borrador.
type MovementResult struct {
	Movement MovementResponse `json:"movement"`
	Warnings []StockWarning   `json:"warnings"`
}

// TransitionResult respuesta de publicar/anular.
type TransitionResult struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMovementResponse mapea la entidad a su representación de salida.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	out := MovementResponse{
		ID:                     m.ID,
		Kind:                   string(m.Kind),
		Subkind:                m.Subkind,
		State:                  string(m.State),
		Date:                   m.Date,
		SourceWarehouseID:      m.SourceWarehouseID,
		DestinationWarehouseID: m.DestinationWarehouseID,
		ThirdPartyID:           m.ThirdPartyID,
		Reference:              m.Reference,
		Notes:                  m.Notes,
		UserID:                 m.UserID,
		Version:                m.Version,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
		Lines:                  make([]MovementLineResponse, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		out.Lines = append(out.Lines, MovementLineResponse{
			ID:          l.ID,
			ItemID:      l.ItemID,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			LineTotal:   l.LineTotal,
			Origin:      snapshotResponse(l.Origin),
			Destination: snapshotResponse(l.Destination),
		})
	}
	return out
}

func snapshotResponse(s *entity.LineSnapshot) *SnapshotResponse {
	if s == nil {
		return nil
	}
	return &SnapshotResponse{Quantity: s.Quantity, AverageCost: s.AverageCost, Value: s.Value}
}
