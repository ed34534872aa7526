package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-kardex/internal/application/dto"
	"github.com/jhoicas/Inventario-kardex/internal/domain"
	"github.com/jhoicas/Inventario-kardex/pkg/logger"
)

var statusByCode = map[string]int{
	domain.CodeValidation:        fiber.StatusBadRequest,
	domain.CodeNotFound:          fiber.StatusNotFound,
	domain.CodeItemNotFound:      fiber.StatusNotFound,
	domain.CodeDuplicate:         fiber.StatusConflict,
	domain.CodeUnauthorized:      fiber.StatusUnauthorized,
	domain.CodeConflict:          fiber.StatusConflict,
	domain.CodeNotDraft:          fiber.StatusConflict,
	domain.CodeNotPublished:      fiber.StatusConflict,
	domain.CodeVersionConflict:   fiber.StatusConflict,
	domain.CodeInsufficientStock: fiber.StatusUnprocessableEntity,
	domain.CodeUnsupportedKind:   fiber.StatusUnprocessableEntity,
}

// ErrorHandler traduce los errores devueltos por los handlers a {code, message, details}.
// Los errores internos se registran y se responden sin detalles.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: httpCode(fe.Code), Message: fe.Message})
		}

		code := domain.CodeOf(err)
		status, ok := statusByCode[code]
		if !ok {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Code:    domain.CodeInternal,
				Message: "error interno del servidor",
			})
		}

		resp := dto.ErrorResponse{Code: code, Message: err.Error()}
		var de *domain.Error
		if errors.As(err, &de) {
			resp.Message = de.Message
			resp.Details = de.Details
		}
		return c.Status(status).JSON(resp)
	}
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return domain.CodeValidation
	case fiber.StatusNotFound:
		return domain.CodeNotFound
	case fiber.StatusUnauthorized:
		return domain.CodeUnauthorized
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		if status >= 500 {
			return domain.CodeInternal
		}
		return "HTTP_ERROR"
	}
}

// badRequest error de validación de la capa HTTP (query o cuerpo malformado).
func badRequest(message string) error {
	return domain.NewValidation(message)
}
