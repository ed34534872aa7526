package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/internal/domain/entity"
	"github.com/jhoicas/Inventario-kardex/pkg/logger"
)

// MovementService ciclo de vida de documentos de movimiento:
// borrador (crear/editar/eliminar) → publicado → anulado.
type MovementService struct {
	txRunner  TxRunner
	costCache CostCache
	validate  *validator.Validate
	log       *logger.Logger
	handlers  map[entity.MovementKind]lineHandler
	now       func() time.Time
}

// NewMovementService construye el servicio. costCache puede ser nil.
func NewMovementService(txRunner TxRunner, costCache CostCache, log *logger.Logger) *MovementService {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementService{
		txRunner:  txRunner,
		costCache: costCache,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
		handlers: map[entity.MovementKind]lineHandler{
			entity.MovementKindInbound:  inboundHandler{},
			entity.MovementKindOutbound: outboundHandler{},
			entity.MovementKindTransfer: transferHandler{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create registra un borrador con sus líneas. Devuelve avisos de stock (no bloqueantes)
// para salidas y traslados cuyo saldo actual no alcanza.
func (s *MovementService) Create(ctx context.Context, in dto.CreateMovementInput) (*dto.MovementResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	now := s.now()
	mov := &entity.Movement{
		ID:                     uuid.New().String(),
		Kind:                   entity.MovementKind(in.Kind),
		Subkind:                strings.TrimSpace(in.Subkind),
		State:                  entity.MovementStateDraft,
		Date:                   now,
		SourceWarehouseID:      optionalID(in.SourceWarehouseID),
		DestinationWarehouseID: optionalID(in.DestinationWarehouseID),
		ThirdPartyID:           optionalID(in.ThirdPartyID),
		Reference:              strings.TrimSpace(in.Reference),
		Notes:                  in.Notes,
		UserID:                 in.UserID,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if in.Date != nil {
		mov.Date = in.Date.UTC()
	}
	if err := validateWarehouses(mov); err != nil {
		return nil, err
	}
	lines, err := buildLines(mov.ID, mov.Kind, in.Lines)
	if err != nil {
		return nil, err
	}
	mov.Lines = lines

	var warnings []dto.StockWarning
	err = s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		if err := checkReferences(ctx, r, mov); err != nil {
			return err
		}
		if err := r.Movements.Create(ctx, mov); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, newAuditEvent(mov.ID, entity.AuditActionCreate, in.UserID, now, map[string]any{
			"kind":  string(mov.Kind),
			"lines": len(mov.Lines),
		})); err != nil {
			return err
		}
		warnings, err = stockWarnings(ctx, r, mov)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.MovementResult{Movement: dto.NewMovementResponse(mov), Warnings: warnings}, nil
}

// Get devuelve el documento con sus líneas.
func (s *MovementService) Get(ctx context.Context, id string) (*entity.Movement, error) {
	if id == "" {
		return nil, domain.NewValidation("id de movimiento requerido")
	}
	var mov *entity.Movement
	err := s.txRunner.RunReadOnly(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.NewNotFound("movimiento", id)
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// Update edita un borrador. La versión esperada viaja en el patch; si otro usuario
// guardó antes se devuelve VERSION_CONFLICT sin persistir nada.
func (s *MovementService) Update(ctx context.Context, id, userID string, patch dto.MovementPatch) (*dto.MovementResult, error) {
	if id == "" || userID == "" {
		return nil, domain.NewValidation("id de movimiento y usuario requeridos")
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}
	if patch.Lines != nil && len(patch.Lines) == 0 {
		return nil, domain.NewValidation("el documento debe tener al menos una línea")
	}

	var (
		mov      *entity.Movement
		warnings []dto.StockWarning
	)
	err := s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.NewNotFound("movimiento", id)
		}
		if m.State != entity.MovementStateDraft {
			return domain.NewError(domain.ErrNotDraft, "solo se pueden editar borradores").
				WithDetail("state", string(m.State))
		}
		if m.Version != patch.Version {
			return domain.NewError(domain.ErrVersionConflict, "el documento fue modificado; recargue e intente de nuevo").
				WithDetail("expected_version", patch.Version).
				WithDetail("current_version", m.Version)
		}

		applyPatch(m, patch)
		if err := validateWarehouses(m); err != nil {
			return err
		}
		if patch.Lines != nil {
			lines, err := buildLines(m.ID, m.Kind, patch.Lines)
			if err != nil {
				return err
			}
			m.Lines = lines
		}
		if err := checkReferences(ctx, r, m); err != nil {
			return err
		}

		m.UpdatedAt = s.now()
		if err := r.Movements.UpdateDraft(ctx, m, patch.Version); err != nil {
			return err
		}
		if patch.Lines != nil {
			if err := r.Movements.ReplaceLines(ctx, m.ID, m.Lines); err != nil {
				return err
			}
		}
		if err := r.Audit.Append(ctx, newAuditEvent(m.ID, entity.AuditActionUpdate, userID, m.UpdatedAt, map[string]any{
			"version":        m.Version,
			"lines_replaced": patch.Lines != nil,
		})); err != nil {
			return err
		}
		mov = m
		warnings, err = stockWarnings(ctx, r, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.MovementResult{Movement: dto.NewMovementResponse(mov), Warnings: warnings}, nil
}

// Delete elimina un borrador y sus líneas.
func (s *MovementService) Delete(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return domain.NewValidation("id de movimiento y usuario requeridos")
	}
	return s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		m, err := r.Movements.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.NewNotFound("movimiento", id)
		}
		if m.State != entity.MovementStateDraft {
			return domain.NewError(domain.ErrNotDraft, "solo se pueden eliminar borradores").
				WithDetail("state", string(m.State))
		}
		if err := r.Movements.Delete(ctx, id); err != nil {
			return err
		}
		return r.Audit.Append(ctx, newAuditEvent(id, entity.AuditActionDelete, userID, s.now(), map[string]any{
			"kind": string(m.Kind),
		}))
	})
}

func applyPatch(m *entity.Movement, p dto.MovementPatch) {
	if p.Subkind != nil {
		m.Subkind = strings.TrimSpace(*p.Subkind)
	}
	if p.Date != nil {
		m.Date = p.Date.UTC()
	}
	if p.SourceWarehouseID != nil {
		m.SourceWarehouseID = optionalID(p.SourceWarehouseID)
	}
	if p.DestinationWarehouseID != nil {
		m.DestinationWarehouseID = optionalID(p.DestinationWarehouseID)
	}
	if p.ThirdPartyID != nil {
		m.ThirdPartyID = optionalID(p.ThirdPartyID)
	}
	if p.Reference != nil {
		m.Reference = strings.TrimSpace(*p.Reference)
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
}

// validateWarehouses reglas de bodegas por tipo de documento.
func validateWarehouses(m *entity.Movement) error {
	src, dst := m.SourceWarehouseID, m.DestinationWarehouseID
	switch m.Kind {
	case entity.MovementKindInbound:
		if dst == nil {
			return domain.NewValidation("la entrada requiere bodega destino")
		}
		if src != nil {
			return domain.NewValidation("la entrada no lleva bodega origen")
		}
	case entity.MovementKindOutbound:
		if src == nil {
			return domain.NewValidation("la salida requiere bodega origen")
		}
		if dst != nil {
			return domain.NewValidation("la salida no lleva bodega destino")
		}
	case entity.MovementKindTransfer:
		if src == nil || dst == nil {
			return domain.NewValidation("el traslado requiere bodega origen y destino")
		}
		if *src == *dst {
			return domain.NewError(domain.ErrConflict, "bodega origen y destino deben ser distintas").
				WithDetail("warehouse_id", *src)
		}
	case entity.MovementKindAdjustment:
		if (src == nil) == (dst == nil) {
			return domain.NewValidation("el ajuste requiere exactamente una bodega")
		}
	default:
		return domain.NewValidation("tipo de movimiento inválido").WithDetail("kind", string(m.Kind))
	}
	return nil
}

// buildLines valida cantidades/costos y arma las líneas del borrador.
func buildLines(movementID string, kind entity.MovementKind, in []dto.MovementLineInput) ([]entity.MovementLine, error) {
	lines := make([]entity.MovementLine, 0, len(in))
	for i, l := range in {
		if strings.TrimSpace(l.ItemID) == "" {
			return nil, domain.NewValidation("ítem requerido").WithDetail("line", i+1)
		}
		if !l.Quantity.IsPositive() {
			return nil, domain.NewValidation("la cantidad debe ser mayor que cero").
				WithDetail("line", i+1).
				WithDetail("item_id", l.ItemID)
		}
		line := entity.MovementLine{
			ID:         uuid.New().String(),
			MovementID: movementID,
			ItemID:     l.ItemID,
			Quantity:   l.Quantity,
		}
		switch {
		case kind.CarriesUnitCost():
			if l.UnitCost == nil {
				return nil, domain.NewValidation("la entrada requiere costo unitario").
					WithDetail("line", i+1).
					WithDetail("item_id", l.ItemID)
			}
			if l.UnitCost.IsNegative() {
				return nil, domain.NewValidation("el costo unitario debe ser >= 0").
					WithDetail("line", i+1).
					WithDetail("item_id", l.ItemID)
			}
			line.SetUnitCost(*l.UnitCost)
		case kind == entity.MovementKindAdjustment && l.UnitCost != nil:
			if l.UnitCost.IsNegative() {
				return nil, domain.NewValidation("el costo unitario debe ser >= 0").WithDetail("line", i+1)
			}
			line.SetUnitCost(*l.UnitCost)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// checkReferences verifica que bodegas e ítems existan antes de escribir.
func checkReferences(ctx context.Context, r Repos, m *entity.Movement) error {
	for _, whID := range m.WarehouseIDs() {
		wh, err := r.Warehouses.GetByID(ctx, whID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NewNotFound("bodega", whID)
		}
	}
	seen := make(map[string]struct{}, len(m.Lines))
	for _, l := range m.Lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		item, err := r.Items.GetByID(ctx, l.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NewError(domain.ErrItemNotFound, "ítem no encontrado").WithDetail("item_id", l.ItemID)
		}
	}
	return nil
}

// stockWarnings validación suave: compara lo solicitado por ítem contra el saldo
// actual de la bodega origen. No bloquea; la validación estricta ocurre al publicar.
func stockWarnings(ctx context.Context, r Repos, m *entity.Movement) ([]dto.StockWarning, error) {
	warnings := []dto.StockWarning{}
	if m.SourceWarehouseID == nil || (m.Kind != entity.MovementKindOutbound && m.Kind != entity.MovementKindTransfer) {
		return warnings, nil
	}
	source := *m.SourceWarehouseID
	requested := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(m.Lines))
	for _, l := range m.Lines {
		if _, ok := requested[l.ItemID]; !ok {
			order = append(order, l.ItemID)
		}
		requested[l.ItemID] = requested[l.ItemID].Add(l.Quantity)
	}
	for _, itemID := range order {
		available := decimal.Zero
		bal, err := r.Balances.Get(ctx, itemID, source)
		if err != nil {
			return nil, err
		}
		if bal != nil {
			available = bal.QuantityOnHand
		}
		if requested[itemID].GreaterThan(available) {
			warnings = append(warnings, dto.StockWarning{
				ItemID:      itemID,
				WarehouseID: source,
				Requested:   requested[itemID],
				Available:   available,
			})
		}
	}
	return warnings, nil
}

func newAuditEvent(movementID, action, userID string, at time.Time, meta map[string]any) *entity.AuditEvent {
	return &entity.AuditEvent{
		ID:       uuid.New().String(),
		Entity:   entity.AuditEntityMovement,
		EntityID: movementID,
		Action:   action,
		UserID:   userID,
		Meta:     meta,
		At:       at,
	}
}

func optionalID(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// validationError traduce errores de validator a domain.Error (campo + regla).
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidation("campo inválido: "+fe.Namespace()).
			WithDetail("field", fe.Namespace()).
			WithDetail("rule", fe.Tag())
	}
	return domain.NewValidation(err.Error())
}
