package inventory

import (
	"context"
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

// BalanceService asignación de ítems a bodegas, umbrales y consulta de costos promedio.
type BalanceService struct {
	txRunner  TxRunner
	costCache CostCache
	validate  *validator.Validate
	log       *logger.Logger
	now       func() time.Time
}

// NewBalanceService construye el servicio. costCache puede ser nil.
func NewBalanceService(txRunner TxRunner, costCache CostCache, log *logger.Logger) *BalanceService {
	if log == nil {
		log = logger.Nop()
	}
	return &BalanceService{
		txRunner:  txRunner,
		costCache: costCache,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AssignItem crea el saldo del ítem en la bodega con su saldo inicial (inmutable).
func (s *BalanceService) AssignItem(ctx context.Context, in dto.AssignItemInput) (*dto.BalanceResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if in.InitialQuantity.IsNegative() {
		return nil, domain.NewValidation("la cantidad inicial debe ser >= 0")
	}
	if in.InitialCost.IsNegative() {
		return nil, domain.NewValidation("el costo inicial debe ser >= 0")
	}
	if err := validateThresholds(in.MinThreshold, in.MaxThreshold); err != nil {
		return nil, err
	}

	now := s.now()
	openingQty, openingCost := in.InitialQuantity, in.InitialCost
	bal := &entity.Balance{
		ID:              uuid.New().String(),
		ItemID:          in.ItemID,
		WarehouseID:     in.WarehouseID,
		QuantityOnHand:  in.InitialQuantity,
		AverageCost:     in.InitialCost,
		MinThreshold:    in.MinThreshold,
		MaxThreshold:    in.MaxThreshold,
		OpeningQuantity: &openingQty,
		OpeningCost:     &openingCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if bal.QuantityOnHand.IsZero() {
		bal.AverageCost = decimal.Zero
	}

	err := s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		item, err := r.Items.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NewError(domain.ErrItemNotFound, "ítem no encontrado").WithDetail("item_id", in.ItemID)
		}
		wh, err := r.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.NewNotFound("bodega", in.WarehouseID)
		}
		existing, err := r.Balances.Get(ctx, in.ItemID, in.WarehouseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrConflict, "el ítem ya está asignado a la bodega").
				WithDetail("item_id", in.ItemID).
				WithDetail("warehouse_id", in.WarehouseID)
		}
		return r.Balances.Create(ctx, bal)
	})
	if err != nil {
		return nil, err
	}
	s.cacheCost(ctx, entity.BalanceKey{ItemID: in.ItemID, WarehouseID: in.WarehouseID}, bal)
	out := dto.NewBalanceResponse(bal)
	return &out, nil
}

// UpdateThresholds actualiza mínimo/máximo; max >= min cuando ambos existen.
func (s *BalanceService) UpdateThresholds(ctx context.Context, itemID, warehouseID string, in dto.ThresholdsInput) (*dto.BalanceResponse, error) {
	if itemID == "" || warehouseID == "" {
		return nil, domain.NewValidation("ítem y bodega requeridos")
	}
	if err := validateThresholds(in.MinThreshold, in.MaxThreshold); err != nil {
		return nil, err
	}
	var bal *entity.Balance
	err := s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		b, err := r.Balances.GetForUpdate(ctx, itemID, warehouseID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.NewNotFound("saldo", itemID+"@"+warehouseID)
		}
		if err := r.Balances.UpdateThresholds(ctx, itemID, warehouseID, in.MinThreshold, in.MaxThreshold); err != nil {
			return err
		}
		b.MinThreshold, b.MaxThreshold = in.MinThreshold, in.MaxThreshold
		bal = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cacheCost(ctx, entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}, bal)
	out := dto.NewBalanceResponse(bal)
	return &out, nil
}

// UnassignItem elimina el saldo; el historial de movimientos se conserva.
func (s *BalanceService) UnassignItem(ctx context.Context, itemID, warehouseID string) error {
	if itemID == "" || warehouseID == "" {
		return domain.NewValidation("ítem y bodega requeridos")
	}
	err := s.txRunner.Run(ctx, func(ctx context.Context, r Repos) error {
		b, err := r.Balances.GetForUpdate(ctx, itemID, warehouseID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.NewNotFound("saldo", itemID+"@"+warehouseID)
		}
		return r.Balances.Delete(ctx, itemID, warehouseID)
	})
	if err != nil {
		return err
	}
	// sin saldo el costo vigente es cero
	s.cacheCost(ctx, entity.BalanceKey{ItemID: itemID, WarehouseID: warehouseID}, nil)
	return nil
}

// GetAverageCosts costo promedio vigente por ítem en una bodega. Los ítems sin saldo
// devuelven ceros. Lee primero de la caché (si existe) y completa los faltantes desde la BD.
func (s *BalanceService) GetAverageCosts(ctx context.Context, warehouseID string, itemIDs []string) (map[string]dto.AverageCost, error) {
	if strings.TrimSpace(warehouseID) == "" {
		return nil, domain.NewValidation("bodega requerida")
	}
	ids := uniqueIDs(itemIDs)
	out := make(map[string]dto.AverageCost, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	if s.costCache != nil {
		cached, err := s.costCache.GetMany(ctx, warehouseID, ids)
		if err != nil {
			s.log.Warn().Err(err).Str("warehouse_id", warehouseID).Msg("caché de costos no disponible")
		}
		missing = missing[:0:0]
		for _, id := range ids {
			if c, ok := cached[id]; ok {
				out[id] = c
				continue
			}
			missing = append(missing, id)
		}
		if len(missing) == 0 {
			return out, nil
		}
	}

	loaded := make(map[string]dto.AverageCost, len(missing))
	err := s.txRunner.RunReadOnly(ctx, func(ctx context.Context, r Repos) error {
		balances, err := r.Balances.ListByWarehouse(ctx, warehouseID, missing)
		if err != nil {
			return err
		}
		for _, b := range balances {
			loaded[b.ItemID] = dto.NewAverageCost(b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		c, ok := loaded[id]
		if !ok {
			c = dto.NewAverageCost(nil)
			loaded[id] = c
		}
		out[id] = c
	}

	if s.costCache != nil {
		if err := s.costCache.FillMany(ctx, warehouseID, loaded); err != nil {
			s.log.Warn().Err(err).Str("warehouse_id", warehouseID).Msg("no se pudo poblar la caché de costos")
		}
	}
	return out, nil
}

func (s *BalanceService) cacheCost(ctx context.Context, key entity.BalanceKey, b *entity.Balance) {
	if s.costCache == nil {
		return
	}
	costs := map[entity.BalanceKey]dto.AverageCost{key: dto.NewAverageCost(b)}
	if err := s.costCache.PutMany(ctx, costs); err != nil {
		s.log.Warn().Err(err).Str("item_id", key.ItemID).Str("warehouse_id", key.WarehouseID).
			Msg("no se pudo actualizar la caché de costos")
	}
}

func validateThresholds(min, max *decimal.Decimal) error {
	if min != nil && min.IsNegative() {
		return domain.NewValidation("el umbral mínimo debe ser >= 0")
	}
	if max != nil && max.IsNegative() {
		return domain.NewValidation("el umbral máximo debe ser >= 0")
	}
	if min != nil && max != nil && max.LessThan(*min) {
		return domain.NewValidation("el umbral máximo debe ser >= al mínimo").
			WithDetail("min", min.String()).
			WithDetail("max", max.String())
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
