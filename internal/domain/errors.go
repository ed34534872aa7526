package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrItemNotFound      = errors.New("ítem no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNotDraft          = errors.New("el movimiento no está en borrador")
	ErrNotPublished      = errors.New("el movimiento no está publicado")
	ErrVersionConflict   = errors.New("el movimiento fue modificado por otro usuario")
	ErrUnsupportedKind   = errors.New("tipo de movimiento no soportado")
)

// Códigos estables, legibles por máquina, expuestos a los colaboradores (API/CLI).
const (
	CodeValidation        = "VALIDATION"
	CodeNotFound          = "NOT_FOUND"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeDuplicate         = "DUPLICATE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeConflict          = "CONFLICT"
	CodeNotDraft          = "NOT_DRAFT"
	CodeNotPublished      = "NOT_PUBLISHED"
	CodeVersionConflict   = "VERSION_CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeUnsupportedKind   = "UNSUPPORTED_KIND"
	CodeInternal          = "INTERNAL"
)

var codeBySentinel = []struct {
	err  error
	code string
}{
	{ErrItemNotFound, CodeItemNotFound},
	{ErrNotFound, CodeNotFound},
	{ErrInvalidInput, CodeValidation},
	{ErrDuplicate, CodeDuplicate},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrNotDraft, CodeNotDraft},
	{ErrNotPublished, CodeNotPublished},
	{ErrVersionConflict, CodeVersionConflict},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrUnsupportedKind, CodeUnsupportedKind},
	{ErrConflict, CodeConflict},
}

// Error es el error de negocio con código estable y contexto para que el llamador
// pueda construir un mensaje útil (ítem, cantidades solicitadas/disponibles, etc.).
// Unwrap devuelve el error centinela para usar errors.Is.
type Error struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail agrega un par clave/valor al contexto del error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewError construye un error de negocio envolviendo el centinela indicado.
func NewError(sentinel error, message string) *Error {
	return &Error{Code: CodeOf(sentinel), Message: message, Err: sentinel}
}

// NewValidation error de validación (antes de abrir cualquier transacción).
func NewValidation(message string) *Error {
	return NewError(ErrInvalidInput, message)
}

// NewNotFound recurso inexistente (documento, bodega, saldo).
func NewNotFound(entity, id string) *Error {
	return NewError(ErrNotFound, entity+" no encontrado").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInsufficientStock stock insuficiente para una salida o traslado.
func NewInsufficientStock(itemName string, requested, available decimal.Decimal) *Error {
	return NewError(ErrInsufficientStock,
		fmt.Sprintf("stock insuficiente para %s: solicitado %s, disponible %s",
			itemName, requested.String(), available.String())).
		WithDetail("item", itemName).
		WithDetail("requested", requested.String()).
		WithDetail("available", available.String())
}

// CodeOf devuelve el código estable de un error (INTERNAL si no es de dominio).
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	for _, c := range codeBySentinel {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
