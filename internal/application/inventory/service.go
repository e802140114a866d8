package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockService capacidad que consumen los callers (ventas, compras, devoluciones, opname).
type StockService interface {
	InitStock(ctx context.Context, productID string) (*entity.StockRecord, error)
	AddStock(ctx context.Context, in StockInput) (*entity.StockMovement, error)
	ReduceStock(ctx context.Context, in StockInput) (ReduceResult, error)
	ReserveStock(ctx context.Context, productID string, qty int64, referenceID string, allowZeroStock bool) (ReserveResult, error)
	ReleaseReservedStock(ctx context.Context, productID string, qty int64) (ReserveResult, error)
	AdjustStock(ctx context.Context, in AdjustInput) (*entity.StockMovement, error)

	GetStock(ctx context.Context, productID string) (*entity.StockRecord, error)
	GetAvailableStock(ctx context.Context, productID string) (int64, error)
	IsStockAvailable(ctx context.Context, productID string, qty int64) (bool, error)
	GetLowStockItems(ctx context.Context, limit int) ([]entity.LowStockItem, error)
	GetStockHistory(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error)
}

// StockInput entrada de AddStock/ReduceStock.
// UnitCost solo aplica a entradas; AllowZeroStock solo a salidas (nil = política del producto).
type StockInput struct {
	ProductID      string
	Quantity       int64
	ReferenceType  string
	ReferenceID    string
	Notes          string
	ActorID        string
	UnitCost       *decimal.Decimal
	AllowZeroStock *bool
}

// AdjustInput entrada de AdjustStock (opname).
type AdjustInput struct {
	ProductID   string
	NewQuantity int64
	ReferenceID string
	Notes       string
	ActorID     string
}

// ReduceResult resultado de ReduceStock. Success=false es un resultado esperado
// (stock insuficiente), no un error; Available y Requested dan el detalle.
type ReduceResult struct {
	Success   bool
	Message   string
	Available int64
	Requested int64
	Remaining int64
	Shortfall int64
	Movement  *entity.StockMovement
}

// ReserveResult resultado de ReserveStock/ReleaseReservedStock.
type ReserveResult struct {
	Success   bool
	Message   string
	Available int64
	Requested int64
	Reserved  int64
}
