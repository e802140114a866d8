package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrStockRecordMissing la fila de stock no existe (error permanente, no se reintenta).
	ErrStockRecordMissing = errors.New("registro de stock inexistente")
	// ErrTransientStorage fallo transitorio de almacenamiento (deadlock, lock timeout); reintentable.
	ErrTransientStorage = errors.New("fallo transitorio de almacenamiento")
	// ErrRetriesExhausted se agotaron los intentos ante fallos transitorios.
	ErrRetriesExhausted = errors.New("reintentos agotados, intente de nuevo")
	// ErrAlreadyProcessed la línea de documento ya fue aplicada al kardex.
	ErrAlreadyProcessed = errors.New("línea ya procesada")
)

// IsTransient indica si err pertenece a la clase de fallos reintentables.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}
