package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockRepository puerto de persistencia de StockRecord.
// Los métodos de escritura y GetForUpdate se usan dentro de una transacción.
type StockRepository interface {
	Get(ctx context.Context, productID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE) hasta el commit/rollback.
	// Devuelve domain.ErrStockRecordMissing si la fila no existe.
	GetForUpdate(ctx context.Context, productID string) (*entity.StockRecord, error)
	Create(ctx context.Context, stock *entity.StockRecord) (*entity.StockRecord, error)
	Update(ctx context.Context, stock *entity.StockRecord) error
	ListLowStock(ctx context.Context, limit int) ([]entity.LowStockItem, error)
}
