package inventory

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ StockService = (*StockLedger)(nil)

// StockLedger motor del kardex: único mutador autorizado de StockRecord.
// Cada mutación bloquea la fila del producto (SELECT FOR UPDATE), escribe stock y
// movimiento en la misma transacción, invalida la caché tras el commit y emite StockChanged.
type StockLedger struct {
	txRunner  TxRunner
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
	products  repository.ProductPolicyRepository
	cache     StockCache
	sink      EventSink
	log       zerolog.Logger
	cfg       atomic.Pointer[Config]
	now       func() time.Time
}

// NewStockLedger construye el motor. cache y sink pueden ser nil.
func NewStockLedger(
	txRunner TxRunner,
	stocks repository.StockRepository,
	movements repository.StockMovementRepository,
	products repository.ProductPolicyRepository,
	cache StockCache,
	sink EventSink,
	cfg Config,
	log zerolog.Logger,
) *StockLedger {
	if cache == nil {
		cache = noopCache{}
	}
	if sink == nil {
		sink = noopSink{}
	}
	l := &StockLedger{
		txRunner:  txRunner,
		stocks:    stocks,
		movements: movements,
		products:  products,
		cache:     cache,
		sink:      sink,
		log:       log.With().Str("component", "stock_ledger").Logger(),
		now:       time.Now,
	}
	l.UpdateConfig(cfg)
	return l
}

// Config devuelve la configuración vigente.
func (l *StockLedger) Config() Config {
	return *l.cfg.Load()
}

// UpdateConfig reemplaza la configuración; las operaciones en curso terminan con la anterior.
func (l *StockLedger) UpdateConfig(cfg Config) {
	c := cfg.normalized()
	l.cfg.Store(&c)
}

// txScope repositorios atados a la transacción en curso.
type txScope struct {
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
	lines     repository.DocumentLineRepository
}

// withinTx se ejecuta en la misma transacción que la mutación, después de escribir el movimiento.
type withinTx func(ctx context.Context, tx txScope, mov *entity.StockMovement) error

// withLockedStock abre una transacción, bloquea la fila del producto y ejecuta fn.
// Ante fallos transitorios repite todo desde el bloqueo. fn devuelve changed=true si escribió;
// solo entonces se invalida la caché.
func (l *StockLedger) withLockedStock(
	ctx context.Context,
	op, productID string,
	fn func(ctx context.Context, tx txScope, stock *entity.StockRecord) (bool, error),
) error {
	var changed bool
	err := withRetry(ctx, l.Config(), l.log, op, func() error {
		changed = false
		return l.txRunner.Run(ctx, func(
			stockRepo repository.StockRepository,
			movRepo repository.StockMovementRepository,
			lineRepo repository.DocumentLineRepository,
		) error {
			stock, err := stockRepo.GetForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			c, err := fn(ctx, txScope{stocks: stockRepo, movements: movRepo, lines: lineRepo}, stock)
			if err != nil {
				return err
			}
			changed = c
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		l.cache.Invalidate(productID)
	}
	return nil
}

// persist escribe el stock y agrega el movimiento (misma tx).
func persist(ctx context.Context, tx txScope, stock *entity.StockRecord, mov *entity.StockMovement) error {
	if err := mov.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	if err := tx.stocks.Update(ctx, stock); err != nil {
		return err
	}
	return tx.movements.Append(ctx, mov)
}

func (l *StockLedger) requireProduct(ctx context.Context, productID string) (*entity.ProductPolicy, error) {
	policy, err := l.products.GetPolicy(ctx, productID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return policy, nil
}

func validateStockInput(in StockInput) error {
	if in.ProductID == "" {
		return fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	return nil
}

func newMovement(in StockInput, movType string, before int64, now time.Time) *entity.StockMovement {
	return &entity.StockMovement{
		ID:             uuid.NewString(),
		ProductID:      in.ProductID,
		Type:           movType,
		Quantity:       in.Quantity,
		QuantityBefore: before,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		Notes:          in.Notes,
		ActorID:        in.ActorID,
		UnitCost:       decimal.Zero,
		TotalCost:      decimal.Zero,
		MovementDate:   now,
	}
}

func (l *StockLedger) emit(ctx context.Context, event entity.StockChanged) {
	if err := l.sink.Emit(ctx, event); err != nil {
		l.log.Error().Err(err).
			Str("product_id", event.ProductID).
			Str("type", event.Type).
			Msg("emitir evento de stock")
	}
}

func movementEvent(mov *entity.StockMovement) entity.StockChanged {
	return entity.StockChanged{
		ProductID:     mov.ProductID,
		QuantityDelta: mov.Delta(),
		QuantityAfter: mov.QuantityAfter,
		Type:          mov.Type,
		MovementID:    mov.ID,
		Timestamp:     mov.MovementDate,
	}
}

// InitStock crea la fila de stock (quantity=0, reserved=0) al dar de alta un producto.
// Si ya existe devuelve la existente.
func (l *StockLedger) InitStock(ctx context.Context, productID string) (*entity.StockRecord, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if _, err := l.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	var rec *entity.StockRecord
	err := withRetry(ctx, l.Config(), l.log, "init_stock", func() error {
		return l.txRunner.Run(ctx, func(
			stockRepo repository.StockRepository,
			_ repository.StockMovementRepository,
			_ repository.DocumentLineRepository,
		) error {
			var err error
			rec, err = stockRepo.Create(ctx, entity.NewStockRecord(productID, l.now()))
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	l.cache.Invalidate(productID)
	return rec, nil
}

// AddStock registra una entrada. No verifica suficiencia: el stock que entra siempre se acepta.
func (l *StockLedger) AddStock(ctx context.Context, in StockInput) (*entity.StockMovement, error) {
	return l.addStock(ctx, in, nil)
}

func (l *StockLedger) addStock(ctx context.Context, in StockInput, within withinTx) (*entity.StockMovement, error) {
	if err := validateStockInput(in); err != nil {
		return nil, err
	}
	if _, err := l.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	var mov *entity.StockMovement
	err := l.withLockedStock(ctx, "add_stock", in.ProductID, func(ctx context.Context, tx txScope, stock *entity.StockRecord) (bool, error) {
		now := l.now()
		mov = newMovement(in, entity.MovementTypeIn, stock.Quantity, now)
		if in.UnitCost != nil {
			stock.AverageCost = domaininv.WeightedAverageCost(stock.Quantity, stock.AverageCost, in.Quantity, *in.UnitCost)
			mov.UnitCost = *in.UnitCost
			mov.TotalCost = in.UnitCost.Mul(decimal.NewFromInt(in.Quantity))
		}
		stock.Quantity += in.Quantity
		stock.LastUpdatedAt = now
		mov.QuantityAfter = stock.Quantity

		if err := persist(ctx, tx, stock, mov); err != nil {
			return false, err
		}
		if within != nil {
			if err := within(ctx, tx, mov); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug().
		Str("product_id", in.ProductID).
		Int64("quantity", in.Quantity).
		Int64("after", mov.QuantityAfter).
		Msg("entrada registrada")
	l.emit(ctx, movementEvent(mov))
	return mov, nil
}

// ReduceStock registra una salida. Si el disponible no alcanza y la política no permite
// vender sin stock devuelve Success=false sin mutar nada. Con venta sin stock permitida la
// existencia queda en max(0, before-qty) y el faltante se acumula en Backorder.
func (l *StockLedger) ReduceStock(ctx context.Context, in StockInput) (ReduceResult, error) {
	return l.reduceStock(ctx, in, nil)
}

func (l *StockLedger) reduceStock(ctx context.Context, in StockInput, within withinTx) (ReduceResult, error) {
	if err := validateStockInput(in); err != nil {
		return ReduceResult{}, err
	}
	policy, err := l.requireProduct(ctx, in.ProductID)
	if err != nil {
		return ReduceResult{}, err
	}
	allowZero := policy.AllowZeroStock || l.Config().DefaultAllowZeroStock
	if in.AllowZeroStock != nil {
		allowZero = *in.AllowZeroStock
	}

	var res ReduceResult
	err = l.withLockedStock(ctx, "reduce_stock", in.ProductID, func(ctx context.Context, tx txScope, stock *entity.StockRecord) (bool, error) {
		available := stock.Available()
		res = ReduceResult{Available: available, Requested: in.Quantity, Remaining: stock.Quantity}
		if available < in.Quantity && !allowZero {
			res.Message = fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", available, in.Quantity)
			return false, nil
		}

		now := l.now()
		mov := newMovement(in, entity.MovementTypeOut, stock.Quantity, now)
		after := stock.Quantity - in.Quantity
		if after < 0 {
			mov.Shortfall = -after
			after = 0
		}
		if !stock.AverageCost.IsZero() {
			mov.UnitCost = stock.AverageCost
			mov.TotalCost = stock.AverageCost.Mul(decimal.NewFromInt(in.Quantity))
		}
		stock.Quantity = after
		stock.Backorder += mov.Shortfall
		stock.LastUpdatedAt = now
		mov.QuantityAfter = after

		if err := persist(ctx, tx, stock, mov); err != nil {
			return false, err
		}
		if within != nil {
			if err := within(ctx, tx, mov); err != nil {
				return false, err
			}
		}
		res.Success = true
		res.Remaining = after
		res.Shortfall = mov.Shortfall
		res.Movement = mov
		return true, nil
	})
	if err != nil {
		return ReduceResult{}, err
	}

	if !res.Success {
		l.log.Info().
			Str("product_id", in.ProductID).
			Int64("available", res.Available).
			Int64("requested", res.Requested).
			Msg("salida rechazada por stock insuficiente")
		return res, nil
	}
	if res.Shortfall > 0 {
		l.log.Warn().
			Str("product_id", in.ProductID).
			Int64("shortfall", res.Shortfall).
			Msg("venta sin stock: faltante acumulado en backorder")
	}
	l.emit(ctx, movementEvent(res.Movement))
	return res, nil
}

// ReserveStock aparta qty del disponible para un pedido pendiente. No genera movimiento.
func (l *StockLedger) ReserveStock(ctx context.Context, productID string, qty int64, referenceID string, allowZeroStock bool) (ReserveResult, error) {
	if err := validateStockInput(StockInput{ProductID: productID, Quantity: qty}); err != nil {
		return ReserveResult{}, err
	}
	if _, err := l.requireProduct(ctx, productID); err != nil {
		return ReserveResult{}, err
	}

	var res ReserveResult
	var quantity int64
	err := l.withLockedStock(ctx, "reserve_stock", productID, func(ctx context.Context, tx txScope, stock *entity.StockRecord) (bool, error) {
		available := stock.Available()
		res = ReserveResult{Available: available, Requested: qty, Reserved: stock.Reserved}
		quantity = stock.Quantity
		if available < qty && !allowZeroStock {
			res.Message = fmt.Sprintf("stock insuficiente para reservar: disponible %d, solicitado %d", available, qty)
			return false, nil
		}
		stock.Reserved += qty
		stock.LastUpdatedAt = l.now()
		if err := tx.stocks.Update(ctx, stock); err != nil {
			return false, err
		}
		res.Success = true
		res.Reserved = stock.Reserved
		return true, nil
	})
	if err != nil {
		return ReserveResult{}, err
	}
	if !res.Success {
		return res, nil
	}

	l.log.Debug().
		Str("product_id", productID).
		Str("reference_id", referenceID).
		Int64("reserved", res.Reserved).
		Msg("stock reservado")
	l.emit(ctx, entity.StockChanged{
		ProductID:     productID,
		ReservedDelta: qty,
		QuantityAfter: quantity,
		Type:          entity.EventTypeReserve,
		Timestamp:     l.now(),
	})
	return res, nil
}

// ReleaseReservedStock libera qty de lo reservado; nunca deja reserved negativo.
func (l *StockLedger) ReleaseReservedStock(ctx context.Context, productID string, qty int64) (ReserveResult, error) {
	if err := validateStockInput(StockInput{ProductID: productID, Quantity: qty}); err != nil {
		return ReserveResult{}, err
	}
	if _, err := l.requireProduct(ctx, productID); err != nil {
		return ReserveResult{}, err
	}

	var res ReserveResult
	var released, quantity int64
	err := l.withLockedStock(ctx, "release_stock", productID, func(ctx context.Context, tx txScope, stock *entity.StockRecord) (bool, error) {
		newReserved := max(0, stock.Reserved-qty)
		released = stock.Reserved - newReserved
		quantity = stock.Quantity
		if released == 0 {
			// nada reservado: sin escritura, sin invalidación ni evento
			res = ReserveResult{Success: true, Requested: qty, Reserved: stock.Reserved, Available: stock.Available()}
			return false, nil
		}
		stock.Reserved = newReserved
		stock.LastUpdatedAt = l.now()
		if err := tx.stocks.Update(ctx, stock); err != nil {
			return false, err
		}
		res = ReserveResult{Success: true, Requested: qty, Reserved: stock.Reserved, Available: stock.Available()}
		return true, nil
	})
	if err != nil {
		return ReserveResult{}, err
	}
	if released == 0 {
		return res, nil
	}

	l.emit(ctx, entity.StockChanged{
		ProductID:     productID,
		ReservedDelta: -released,
		QuantityAfter: quantity,
		Type:          entity.EventTypeRelease,
		Timestamp:     l.now(),
	})
	return res, nil
}

// AdjustStock fija la existencia al conteo físico (opname) y deja el ajuste en el kardex.
// El conteo físico reemplaza el backorder acumulado. Un conteo negativo deja la
// existencia en 0, con el exceso como faltante del movimiento y como backorder.
func (l *StockLedger) AdjustStock(ctx context.Context, in AdjustInput) (*entity.StockMovement, error) {
	if in.ProductID == "" {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if _, err := l.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	var mov *entity.StockMovement
	err := l.withLockedStock(ctx, "adjust_stock", in.ProductID, func(ctx context.Context, tx txScope, stock *entity.StockRecord) (bool, error) {
		now := l.now()
		adjustment := in.NewQuantity - stock.Quantity
		mov = newMovement(StockInput{
			ProductID:     in.ProductID,
			Quantity:      abs(adjustment),
			ReferenceType: entity.ReferenceAdjustment,
			ReferenceID:   in.ReferenceID,
			Notes:         in.Notes,
			ActorID:       in.ActorID,
		}, entity.MovementTypeAdjustment, stock.Quantity, now)
		stock.Quantity = max(0, in.NewQuantity)
		stock.Backorder = max(0, -in.NewQuantity)
		mov.Shortfall = stock.Backorder
		stock.LastUpdatedAt = now
		mov.QuantityAfter = stock.Quantity
		if err := persist(ctx, tx, stock, mov); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Str("product_id", in.ProductID).
		Int64("before", mov.QuantityBefore).
		Int64("after", mov.QuantityAfter).
		Str("actor_id", in.ActorID).
		Msg("ajuste de inventario")
	l.emit(ctx, movementEvent(mov))
	return mov, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
