package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
)

// MovementHandler maneja las peticiones HTTP de documentos de movimiento (protegido).
type MovementHandler struct {
	svc                  *inventory.MovementService
	allowNegativeDefault bool
}

// NewMovementHandler construye el handler.
func NewMovementHandler(svc *inventory.MovementService, allowNegativeDefault bool) *MovementHandler {
	return &MovementHandler{svc: svc, allowNegativeDefault: allowNegativeDefault}
}

// Create godoc
// @Summary      Crear movimiento en borrador
// @Description  Valida estructura y bodegas; devuelve advertencias de stock sin bloquear.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateMovementInput  true  "kind, bodegas y líneas"
// @Success      201   {object}  dto.MovementResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMovementInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("cuerpo inválido")
	}
	in.UserID = GetUserID(c)
	out, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener movimiento
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) Get(c *fiber.Ctx) error {
	m, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewMovementResponse(m))
}

// Update godoc
// @Summary      Actualizar borrador
// @Description  Requiere la versión leída (concurrencia optimista). Las líneas enviadas reemplazan a las actuales.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "ID del movimiento"
// @Param        body  body      dto.MovementPatch  true  "campos a modificar + version"
// @Success      200   {object}  dto.MovementResult
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	var patch dto.MovementPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest("cuerpo inválido")
	}
	out, err := h.svc.Update(c.UserContext(), c.Params("id"), GetUserID(c), patch)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar borrador
// @Tags         movements
// @Security     Bearer
// @Param        id   path  string  true  "ID del movimiento"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id"), GetUserID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Publish godoc
// @Summary      Publicar movimiento
// @Description  Aplica las líneas a los saldos en una sola transacción. allow_negative permite stock negativo.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string              true   "ID del movimiento"
// @Param        body  body      dto.PublishRequest  false  "allow_negative"
// @Success      200   {object}  dto.TransitionResult
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/movements/{id}/publish [post]
func (h *MovementHandler) Publish(c *fiber.Ctx) error {
	var req dto.PublishRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest("cuerpo inválido")
		}
	}
	allowNegative := h.allowNegativeDefault
	if req.AllowNegative != nil {
		allowNegative = *req.AllowNegative
	}
	out, err := h.svc.Publish(c.UserContext(), c.Params("id"), GetUserID(c), allowNegative)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Void godoc
// @Summary      Anular movimiento publicado
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string           true   "ID del movimiento"
// @Param        body  body      dto.VoidRequest  false  "reason"
// @Success      200   {object}  dto.TransitionResult
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/{id}/void [post]
func (h *MovementHandler) Void(c *fiber.Ctx) error {
	var req dto.VoidRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest("cuerpo inválido")
		}
	}
	out, err := h.svc.Void(c.UserContext(), c.Params("id"), GetUserID(c), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
