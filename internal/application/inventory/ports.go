package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad stock + kardex.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		lineRepo repository.DocumentLineRepository,
	) error) error
}

// StockCache caché de lectura de StockRecord. No es autoritativa: se invalida tras cada commit.
type StockCache interface {
	GetOrLoad(ctx context.Context, productID string, load func(ctx context.Context) (*entity.StockRecord, error)) (*entity.StockRecord, error)
	Invalidate(productID string)
}

// EventSink recibe los eventos StockChanged para reenviarlos (dashboards, otros servicios).
type EventSink interface {
	Emit(ctx context.Context, event entity.StockChanged) error
}

type noopCache struct{}

func (noopCache) GetOrLoad(ctx context.Context, _ string, load func(ctx context.Context) (*entity.StockRecord, error)) (*entity.StockRecord, error) {
	return load(ctx)
}

func (noopCache) Invalidate(string) {}

type noopSink struct{}

func (noopSink) Emit(context.Context, entity.StockChanged) error { return nil }
