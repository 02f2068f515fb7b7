package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrRangeOverlap     = errors.New("el rango se solapa con otra serie del mismo tipo")
	ErrExhausted        = errors.New("no hay comprobantes disponibles")
	ErrAlreadyVoided    = errors.New("la serie ya está anulada")
	ErrImmutableSeries  = errors.New("la serie ya tiene comprobantes asignados")
	ErrReceiptTypeInUse = errors.New("el tipo de comprobante ya está referenciado por una serie")
)

// ValidationError describe una entrada rechazada antes de cualquier mutación.
// errors.Is(err, ErrInvalidInput) es verdadero.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ExhaustionError indica que el tipo de comprobante no tiene números disponibles.
// Lleva el tipo para que un operador pueda crear una nueva serie.
type ExhaustionError struct {
	ReceiptTypeID string
	Code          string
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("%s para el tipo %s: debe crear una serie de comprobantes antes de activar la factura",
		ErrExhausted.Error(), e.Code)
}

func (e *ExhaustionError) Is(target error) bool { return target == ErrExhausted }

// RangeOverlapError identifica la serie existente con la que choca el rango nuevo.
type RangeOverlapError struct {
	SeriesID string
	From     int64
	To       int64
}

func (e *RangeOverlapError) Error() string {
	return fmt.Sprintf("%s (serie %s: %d-%d)", ErrRangeOverlap.Error(), e.SeriesID, e.From, e.To)
}

func (e *RangeOverlapError) Is(target error) bool { return target == ErrRangeOverlap }
