package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
)

// BalanceHandler saldos por bodega: asignación, umbrales y costos promedio (protegido).
type BalanceHandler struct {
	svc *inventory.BalanceService
}

// NewBalanceHandler construye el handler.
func NewBalanceHandler(svc *inventory.BalanceService) *BalanceHandler {
	return &BalanceHandler{svc: svc}
}

// AverageCosts godoc
// @Summary      Costos promedio vigentes
// @Description  Ítems sin saldo en la bodega devuelven ceros.
// @Tags         balances
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true  "ID de la bodega"
// @Param        item_ids  query  string  true  "IDs separados por coma"
// @Success      200  {object}  map[string]dto.AverageCost
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/average-costs [get]
func (h *BalanceHandler) AverageCosts(c *fiber.Ctx) error {
	var ids []string
	for _, id := range strings.Split(c.Query("item_ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return badRequest("item_ids es requerido")
	}
	out, err := h.svc.GetAverageCosts(c.UserContext(), c.Params("id"), ids)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// AssignItem godoc
// @Summary      Asignar ítem a bodega
// @Tags         balances
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID de la bodega"
// @Param        body  body      dto.AssignItemInput  true  "item_id, saldo inicial y umbrales"
// @Success      201   {object}  dto.BalanceResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items [post]
func (h *BalanceHandler) AssignItem(c *fiber.Ctx) error {
	var in dto.AssignItemInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("cuerpo inválido")
	}
	in.WarehouseID = c.Params("id")
	out, err := h.svc.AssignItem(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateThresholds godoc
// @Summary      Actualizar umbrales mínimo/máximo
// @Tags         balances
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "ID de la bodega"
// @Param        itemId  path      string               true  "ID del ítem"
// @Param        body    body      dto.ThresholdsInput  true  "min_threshold, max_threshold"
// @Success      200     {object}  dto.BalanceResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items/{itemId} [patch]
func (h *BalanceHandler) UpdateThresholds(c *fiber.Ctx) error {
	var in dto.ThresholdsInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("cuerpo inválido")
	}
	out, err := h.svc.UpdateThresholds(c.UserContext(), c.Params("itemId"), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// UnassignItem godoc
// @Summary      Desasignar ítem de bodega
// @Tags         balances
// @Security     Bearer
// @Param        id      path  string  true  "ID de la bodega"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items/{itemId} [delete]
func (h *BalanceHandler) UnassignItem(c *fiber.Ctx) error {
	if err := h.svc.UnassignItem(c.UserContext(), c.Params("itemId"), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
