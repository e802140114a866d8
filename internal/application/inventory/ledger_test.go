package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var errTransient = fmt.Errorf("get stock for update: %w", domain.ErrTransientStorage)

// assertChain comprueba que el kardex reproduce la existencia: cada movimiento parte
// del after del anterior y el último coincide con la cantidad final.
func assertChain(t *testing.T, movs []*entity.StockMovement, initial, final int64) {
	t.Helper()
	prev := initial
	for i, m := range movs {
		require.NoError(t, m.Validate(), "movimiento %d", i)
		assert.Equal(t, prev, m.QuantityBefore, "movimiento %d", i)
		prev = m.QuantityAfter
	}
	assert.Equal(t, final, prev)
}

func TestStockLedger_EscenarioReservaYVenta(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	ctx := context.Background()

	res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 3, ReferenceType: entity.ReferenceSale, ReferenceID: "v-1"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(7), res.Remaining)

	rres, err := f.ledger.ReserveStock(ctx, "p1", 5, "pedido-9", false)
	require.NoError(t, err)
	require.True(t, rres.Success)
	assert.Equal(t, int64(5), rres.Reserved)

	avail, err := f.ledger.GetAvailableStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), avail)

	res, err = f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 5, ReferenceType: entity.ReferenceSale, ReferenceID: "v-2"})
	require.NoError(t, err, "stock insuficiente es un resultado, no un error")
	assert.False(t, res.Success)
	assert.Equal(t, int64(2), res.Available)
	assert.Equal(t, int64(5), res.Requested)
	assert.Contains(t, res.Message, "disponible 2")
	assert.Equal(t, int64(7), f.store.stock("p1").Quantity)

	res, err = f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 2, ReferenceType: entity.ReferenceSale, ReferenceID: "v-3"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(5), res.Remaining)

	st := f.store.stock("p1")
	assert.Equal(t, int64(5), st.Quantity)
	assert.Equal(t, int64(5), st.Reserved)

	movs := f.store.movementsOf("p1")
	require.Len(t, movs, 2, "la reserva y la salida rechazada no generan movimiento")
	assertChain(t, movs, 10, 5)
}

func TestStockLedger_VentaSinStockPermitida(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 0, true, 0)

	res, err := f.ledger.ReduceStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 4, ReferenceType: entity.ReferenceSale})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, int64(4), res.Shortfall)

	mov := res.Movement
	require.NotNil(t, mov)
	assert.Equal(t, entity.MovementTypeOut, mov.Type)
	assert.Equal(t, int64(0), mov.QuantityBefore)
	assert.Equal(t, int64(0), mov.QuantityAfter)
	assert.Equal(t, int64(4), mov.Quantity)
	assert.Equal(t, int64(4), mov.Shortfall)

	st := f.store.stock("p1")
	assert.Equal(t, int64(0), st.Quantity)
	assert.Equal(t, int64(4), st.Backorder)
}

func TestStockLedger_PoliticaDeVentaSinStock(t *testing.T) {
	ctx := context.Background()

	t.Run("el caller anula la política del producto", func(t *testing.T) {
		f := newFixture()
		f.store.addProduct("p1", 1, true, 0)
		res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 2, AllowZeroStock: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, int64(1), f.store.stock("p1").Quantity)
	})

	t.Run("default de configuración", func(t *testing.T) {
		f := newFixture()
		f.store.addProduct("p1", 1, false, 0)
		cfg := f.ledger.Config()
		cfg.DefaultAllowZeroStock = true
		f.ledger.UpdateConfig(cfg)

		res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 2})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, int64(1), res.Shortfall)
	})
}

func TestStockLedger_SecuenciaAleatoriaCoincideConModelo(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 5, true, 0)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	want := int64(5)
	for i := 0; i < 200; i++ {
		qty := rng.Int63n(9) + 1
		if rng.Intn(2) == 0 {
			_, err := f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: qty})
			require.NoError(t, err)
			want += qty
			continue
		}
		res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: qty})
		require.NoError(t, err)
		require.True(t, res.Success)
		want = max(0, want-qty)
		require.Equal(t, want, res.Remaining)
		require.GreaterOrEqual(t, res.Remaining, int64(0))
	}

	assert.Equal(t, want, f.store.stock("p1").Quantity)
	movs := f.store.movementsOf("p1")
	assert.Len(t, movs, 200)
	assertChain(t, movs, 5, want)
}

func TestStockLedger_SalidasConcurrentesNoSobrevenden(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.ledger.ReduceStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 1})
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				ok++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, int64(0), f.store.stock("p1").Quantity)
	assertChain(t, f.store.movementsOf("p1"), 10, 0)
}

func TestStockLedger_EntradasYSalidasConcurrentesSinPerdidas(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 100, false, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.ledger.AddStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 3})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			res, err := f.ledger.ReduceStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 2})
			assert.NoError(t, err)
			assert.True(t, res.Success)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100+20*3-20*2), f.store.stock("p1").Quantity)
	assertChain(t, f.store.movementsOf("p1"), 100, 120)
}

func TestStockLedger_ReservaYLiberacion(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	ctx := context.Background()

	res, err := f.ledger.ReserveStock(ctx, "p1", 4, "pedido-1", false)
	require.NoError(t, err)
	require.True(t, res.Success)

	rel, err := f.ledger.ReleaseReservedStock(ctx, "p1", 4)
	require.NoError(t, err)
	assert.True(t, rel.Success)
	assert.Equal(t, int64(0), f.store.stock("p1").Reserved, "reservar y liberar lo mismo vuelve al estado original")

	res, err = f.ledger.ReserveStock(ctx, "p1", 11, "pedido-2", false)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int64(10), res.Available)
	assert.Equal(t, int64(0), f.store.stock("p1").Reserved)

	res, err = f.ledger.ReserveStock(ctx, "p1", 3, "pedido-3", false)
	require.NoError(t, err)
	require.True(t, res.Success)

	rel, err = f.ledger.ReleaseReservedStock(ctx, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rel.Reserved, "liberar de más deja reserved en cero")
	assert.Empty(t, f.store.movementsOf("p1"))

	events := f.sink.all()
	require.Len(t, events, 4)
	assert.Equal(t, entity.EventTypeRelease, events[3].Type)
	assert.Equal(t, int64(-3), events[3].ReservedDelta)
}

func TestStockLedger_LiberarSinReservaNoEscribe(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	ctx := context.Background()
	before := f.store.stock("p1")

	rel, err := f.ledger.ReleaseReservedStock(ctx, "p1", 3)
	require.NoError(t, err)
	assert.True(t, rel.Success)
	assert.Equal(t, int64(0), rel.Reserved)
	assert.Equal(t, int64(10), rel.Available)

	assert.Equal(t, before, f.store.stock("p1"), "la fila no se reescribe")
	assert.Empty(t, f.sink.all(), "sin evento release con delta cero")
	assert.Zero(t, f.cache.invalidated("p1"))
}

func TestStockLedger_ReservaPermitiendoSinStock(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 2, false, 0)

	res, err := f.ledger.ReserveStock(context.Background(), "p1", 5, "pedido-1", true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(5), res.Reserved)

	avail, err := f.ledger.GetAvailableStock(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), avail, "el disponible nunca es negativo")
}

func TestStockLedger_AjusteFijaLaCantidad(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 0, true, 0)
	ctx := context.Background()

	_, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, int64(3), f.store.stock("p1").Backorder)

	mov, err := f.ledger.AdjustStock(ctx, inventory.AdjustInput{ProductID: "p1", NewQuantity: 12, ReferenceID: "opname-1", ActorID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeAdjustment, mov.Type)
	assert.Equal(t, entity.ReferenceAdjustment, mov.ReferenceType)
	assert.Equal(t, int64(0), mov.QuantityBefore)
	assert.Equal(t, int64(12), mov.QuantityAfter)
	assert.Equal(t, int64(12), mov.Quantity)

	mov, err = f.ledger.AdjustStock(ctx, inventory.AdjustInput{ProductID: "p1", NewQuantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(8), mov.Quantity, "la magnitud del ajuste es |N - before|")
	assert.Equal(t, int64(-8), mov.Delta())

	st := f.store.stock("p1")
	assert.Equal(t, int64(4), st.Quantity)
	assert.Equal(t, int64(0), st.Backorder, "el conteo físico limpia el backorder")

	mov, err = f.ledger.AdjustStock(ctx, inventory.AdjustInput{ProductID: "p1", NewQuantity: -5})
	require.NoError(t, err)
	assert.Equal(t, int64(9), mov.Quantity, "|N - before| con N negativo")
	assert.Equal(t, int64(5), mov.Shortfall)
	assert.Equal(t, int64(0), mov.QuantityAfter)
	st = f.store.stock("p1")
	assert.Equal(t, int64(0), st.Quantity, "la existencia queda en max(0, N)")
	assert.Equal(t, int64(5), st.Backorder)
	assertChain(t, f.store.movementsOf("p1"), 0, 0)
}

func TestStockLedger_CostoPromedioPonderado(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 0, false, 0)
	ctx := context.Background()

	cost100 := decimal.NewFromInt(100)
	cost200 := decimal.NewFromInt(200)
	_, err := f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 10, UnitCost: &cost100})
	require.NoError(t, err)
	mov, err := f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 10, UnitCost: &cost200})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(mov.TotalCost))

	st := f.store.stock("p1")
	assert.True(t, decimal.NewFromInt(150).Equal(st.AverageCost), "got %s", st.AverageCost)

	res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(res.Movement.UnitCost))
	assert.True(t, decimal.NewFromInt(750).Equal(res.Movement.TotalCost))
}

func TestStockLedger_ValidacionAntesDelBloqueo(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	ctx := context.Background()
	negative := decimal.NewFromInt(-1)

	_, err := f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 1, UnitCost: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: -2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.ReserveStock(ctx, "p1", 0, "", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.ReleaseReservedStock(ctx, "p1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.AdjustStock(ctx, inventory.AdjustInput{ProductID: "", NewQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "desconocido", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "desconocido", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	txs, _ := f.store.counts()
	assert.Zero(t, txs, "ninguna validación fallida abre transacción")
	assert.Equal(t, int64(10), f.store.stock("p1").Quantity)
}

func TestStockLedger_ReintentaFallosTransitorios(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	f.store.failLocks(errTransient, errTransient)

	mov, err := f.ledger.AddStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(15), mov.QuantityAfter)

	txs, rollbacks := f.store.counts()
	assert.Equal(t, 3, txs)
	assert.Equal(t, 2, rollbacks)
	assert.Len(t, f.store.movementsOf("p1"), 1, "los intentos fallidos no dejan movimientos")
}

func TestStockLedger_ReintentosAgotados(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	f.store.failLocks(errTransient, errTransient, errTransient)

	_, err := f.ledger.ReduceStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	assert.False(t, domain.IsTransient(err), "el error final ya no es reintentable")

	txs, _ := f.store.counts()
	assert.Equal(t, 3, txs)
	assert.Equal(t, int64(10), f.store.stock("p1").Quantity)
	assert.Zero(t, f.cache.invalidated("p1"))
	assert.Empty(t, f.sink.all())
}

func TestStockLedger_ErrorPermanenteNoSeReintenta(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	boom := errors.New("conexión perdida")
	f.store.failLocks(boom)

	_, err := f.ledger.AddStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrRetriesExhausted)

	txs, _ := f.store.counts()
	assert.Equal(t, 1, txs)
}

func TestStockLedger_UpdateConfigCambiaIntentos(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	cfg := f.ledger.Config()
	cfg.MaxAttempts = 5
	f.ledger.UpdateConfig(cfg)
	f.store.failLocks(errTransient, errTransient, errTransient, errTransient)

	_, err := f.ledger.AddStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	txs, _ := f.store.counts()
	assert.Equal(t, 5, txs)

	f.ledger.UpdateConfig(inventory.Config{})
	assert.Equal(t, inventory.DefaultConfig().MaxAttempts, f.ledger.Config().MaxAttempts, "valores no válidos vuelven al default")
}

func TestStockLedger_FalloAlEscribirMovimientoRevierteTodo(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	f.store.appendErr = errors.New("disco lleno")

	_, err := f.ledger.AddStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 5})
	require.Error(t, err)

	assert.Equal(t, int64(10), f.store.stock("p1").Quantity, "stock y kardex cambian juntos o no cambian")
	assert.Empty(t, f.store.movementsOf("p1"))
	_, rollbacks := f.store.counts()
	assert.Equal(t, 1, rollbacks)
	assert.Zero(t, f.cache.invalidated("p1"))
	assert.Empty(t, f.sink.all())
}

func TestStockLedger_FilaDeStockInexistente(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 0, false, 0)
	delete(f.store.stocks, "p1")
	ctx := context.Background()

	_, err := f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrStockRecordMissing)
	txs, _ := f.store.counts()
	assert.Equal(t, 1, txs, "un error permanente no se reintenta")

	rec, err := f.ledger.GetStock(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = f.ledger.InitStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Quantity)
	assert.Equal(t, int64(0), rec.Reserved)

	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 4})
	require.NoError(t, err)

	rec, err = f.ledger.InitStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Quantity, "InitStock no pisa una fila existente")

	_, err = f.ledger.InitStock(ctx, "desconocido")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockLedger_CacheSeInvalidaTrasCommit(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	ctx := context.Background()

	rec, err := f.ledger.GetStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Quantity)
	rec.Quantity = 999 // la copia devuelta no contamina la caché

	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.invalidated("p1"))

	rec, err = f.ledger.GetStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), rec.Quantity, "la lectura tras la mutación ve el valor confirmado")

	res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 50})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, 1, f.cache.invalidated("p1"), "una salida rechazada no invalida")

	ok, err := f.ledger.IsStockAvailable(ctx, "p1", 15)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.ledger.IsStockAvailable(ctx, "p1", 16)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStockLedger_EventosTrasCadaMutacion(t *testing.T) {
	f := newFixture()
	f.store.addProduct("p1", 10, false, 0)
	ctx := context.Background()

	_, err := f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	_, err = f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 30})
	require.NoError(t, err)
	res, err := f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "p1", Quantity: 6})
	require.NoError(t, err)
	_, err = f.ledger.AdjustStock(ctx, inventory.AdjustInput{ProductID: "p1", NewQuantity: 20})
	require.NoError(t, err)

	events := f.sink.all()
	require.Len(t, events, 3, "la salida rechazada no emite evento")

	assert.Equal(t, entity.MovementTypeIn, events[0].Type)
	assert.Equal(t, int64(5), events[0].QuantityDelta)
	assert.Equal(t, int64(15), events[0].QuantityAfter)

	assert.Equal(t, entity.MovementTypeOut, events[1].Type)
	assert.Equal(t, int64(-6), events[1].QuantityDelta)
	assert.Equal(t, res.Movement.ID, events[1].MovementID)

	assert.Equal(t, entity.MovementTypeAdjustment, events[2].Type)
	assert.Equal(t, int64(11), events[2].QuantityDelta)
	for _, e := range events {
		assert.Equal(t, "p1", e.ProductID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

type failingSink struct{}

func (failingSink) Emit(context.Context, entity.StockChanged) error { return errors.New("broker caído") }

func TestStockLedger_FalloDelSinkNoDeshaceElCommit(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", 1, false, 0)
	ledger := inventory.NewStockLedger(store, memStocks{s: store}, memMovements{s: store}, memProducts{s: store},
		nil, failingSink{}, inventory.DefaultConfig(), zerolog.Nop())

	mov, err := ledger.AddStock(context.Background(), inventory.StockInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mov.QuantityAfter)
	assert.Equal(t, int64(2), store.stock("p1").Quantity)
}

func TestStockLedger_Consultas(t *testing.T) {
	f := newFixture()
	f.store.addProduct("a", 2, false, 5)
	f.store.addProduct("b", 10, false, 5)
	f.store.addProduct("c", 0, false, 3)
	ctx := context.Background()

	items, err := f.ledger.GetLowStockItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].ProductID, "el más crítico primero")
	assert.Equal(t, "a", items[1].ProductID)
	assert.Equal(t, int64(5), items[1].MinStock)

	items, err = f.ledger.GetLowStockItems(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "b", Quantity: 1, ReferenceID: "c-1"})
	require.NoError(t, err)
	_, err = f.ledger.AddStock(ctx, inventory.StockInput{ProductID: "b", Quantity: 2, ReferenceID: "c-2"})
	require.NoError(t, err)
	_, err = f.ledger.ReduceStock(ctx, inventory.StockInput{ProductID: "b", Quantity: 1, ReferenceID: "v-1"})
	require.NoError(t, err)

	history, err := f.ledger.GetStockHistory(ctx, "b", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "v-1", history[0].ReferenceID, "el más reciente primero")
	assert.Equal(t, "c-2", history[1].ReferenceID)

	history, err = f.ledger.GetStockHistory(ctx, "b", 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	_, err = f.ledger.GetStockHistory(ctx, "", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	avail, err := f.ledger.GetAvailableStock(ctx, "no-existe")
	require.NoError(t, err)
	assert.Zero(t, avail)
}
