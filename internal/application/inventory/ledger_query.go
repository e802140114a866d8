package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// GetStock devuelve el stock del producto pasando por la caché. nil si no existe.
func (l *StockLedger) GetStock(ctx context.Context, productID string) (*entity.StockRecord, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	rec, err := l.cache.GetOrLoad(ctx, productID, func(ctx context.Context) (*entity.StockRecord, error) {
		return l.stocks.Get(ctx, productID)
	})
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// GetAvailableStock devuelve max(0, quantity - reserved); 0 si el producto no tiene fila.
func (l *StockLedger) GetAvailableStock(ctx context.Context, productID string) (int64, error) {
	rec, err := l.GetStock(ctx, productID)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Available(), nil
}

func (l *StockLedger) IsStockAvailable(ctx context.Context, productID string, qty int64) (bool, error) {
	available, err := l.GetAvailableStock(ctx, productID)
	if err != nil {
		return false, err
	}
	return available >= qty, nil
}

// GetLowStockItems productos con disponible < stock mínimo, el más crítico primero.
func (l *StockLedger) GetLowStockItems(ctx context.Context, limit int) ([]entity.LowStockItem, error) {
	if limit <= 0 {
		limit = l.Config().LowStockLimit
	}
	return l.stocks.ListLowStock(ctx, limit)
}

// GetStockHistory movimientos del producto, el más reciente primero.
func (l *StockLedger) GetStockHistory(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = l.Config().HistoryLimit
	}
	return l.movements.ListByProduct(ctx, productID, limit)
}
