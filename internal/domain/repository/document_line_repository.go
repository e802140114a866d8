package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DocumentLineRepository puerto para líneas de compra/devolución pendientes de aplicar.
type DocumentLineRepository interface {
	// ListUnprocessed lista líneas sin aplicar con ID mayor que afterID, ordenadas por ID.
	ListUnprocessed(ctx context.Context, kind entity.DocumentKind, afterID string, limit int) ([]*entity.DocumentLine, error)
	// MarkProcessed marca la línea y guarda el movimiento. Devuelve domain.ErrAlreadyProcessed
	// si otra transacción ya la marcó.
	MarkProcessed(ctx context.Context, kind entity.DocumentKind, lineID, movementID string) error
}
