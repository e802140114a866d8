package inventory_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// memStore almacén en memoria con transacciones todo-o-nada. Run serializa las
// transacciones con un único mutex, lo que equivale (para los tests) al bloqueo de fila.
type memStore struct {
	mu        sync.Mutex
	stocks    map[string]*entity.StockRecord
	movements []*entity.StockMovement
	lines     map[entity.DocumentKind][]*entity.DocumentLine
	products  map[string]*entity.ProductPolicy

	lockFailures []error // se consumen en orden en GetForUpdate
	appendErr    error
	txCount      int
	rollbacks    int
}

func newMemStore() *memStore {
	return &memStore{
		stocks:   map[string]*entity.StockRecord{},
		lines:    map[entity.DocumentKind][]*entity.DocumentLine{},
		products: map[string]*entity.ProductPolicy{},
	}
}

// addProduct registra el producto en el catálogo y su fila de stock.
func (s *memStore) addProduct(id string, quantity int64, allowZero bool, minStock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &entity.ProductPolicy{ProductID: id, SKU: "SKU-" + id, Name: "Producto " + id, MinStock: minStock, AllowZeroStock: allowZero, Active: true}
	s.stocks[id] = &entity.StockRecord{ProductID: id, Quantity: quantity}
}

func (s *memStore) addLine(l *entity.DocumentLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[l.Kind] = append(s.lines[l.Kind], l)
}

func (s *memStore) failLocks(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockFailures = append(s.lockFailures, errs...)
}

func (s *memStore) stock(id string) entity.StockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.stocks[id]
}

func (s *memStore) movementsOf(id string) []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range s.movements {
		if m.ProductID == id {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) counts() (txs, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount, s.rollbacks
}

type lineMark struct {
	kind       entity.DocumentKind
	lineID     string
	movementID string
}

type memTx struct {
	stocks    map[string]*entity.StockRecord
	movements []*entity.StockMovement
	marks     []lineMark
}

func (s *memStore) Run(_ context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	lineRepo repository.DocumentLineRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	tx := &memTx{stocks: map[string]*entity.StockRecord{}}
	if err := fn(memStocks{s, tx}, memMovements{s, tx}, memLines{s, tx}); err != nil {
		s.rollbacks++
		return err
	}
	for id, st := range tx.stocks {
		s.stocks[id] = st
	}
	s.movements = append(s.movements, tx.movements...)
	for _, m := range tx.marks {
		for _, l := range s.lines[m.kind] {
			if l.ID == m.lineID {
				l.StockProcessed = true
				id := m.movementID
				l.MovementID = &id
			}
		}
	}
	return nil
}

func (s *memStore) lookup(tx *memTx, id string) *entity.StockRecord {
	if tx != nil {
		if st, ok := tx.stocks[id]; ok {
			return st.Clone()
		}
	}
	if st, ok := s.stocks[id]; ok {
		return st.Clone()
	}
	return nil
}

// memStocks StockRepository; tx == nil significa lectura fuera de transacción.
type memStocks struct {
	s  *memStore
	tx *memTx
}

func (r memStocks) Get(_ context.Context, id string) (*entity.StockRecord, error) {
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return r.s.lookup(r.tx, id), nil
}

func (r memStocks) GetForUpdate(_ context.Context, id string) (*entity.StockRecord, error) {
	if len(r.s.lockFailures) > 0 {
		err := r.s.lockFailures[0]
		r.s.lockFailures = r.s.lockFailures[1:]
		return nil, err
	}
	st := r.s.lookup(r.tx, id)
	if st == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrStockRecordMissing)
	}
	return st, nil
}

func (r memStocks) Create(_ context.Context, st *entity.StockRecord) (*entity.StockRecord, error) {
	if existing := r.s.lookup(r.tx, st.ProductID); existing != nil {
		return existing, nil
	}
	r.tx.stocks[st.ProductID] = st.Clone()
	return st.Clone(), nil
}

func (r memStocks) Update(_ context.Context, st *entity.StockRecord) error {
	if r.s.lookup(r.tx, st.ProductID) == nil {
		return domain.ErrStockRecordMissing
	}
	r.tx.stocks[st.ProductID] = st.Clone()
	return nil
}

func (r memStocks) ListLowStock(_ context.Context, limit int) ([]entity.LowStockItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.LowStockItem
	for id, st := range r.s.stocks {
		p := r.s.products[id]
		if p == nil || !p.Active || st.Available() >= p.MinStock {
			continue
		}
		out = append(out, entity.LowStockItem{
			ProductID: id, SKU: p.SKU, Name: p.Name,
			Quantity: st.Quantity, Reserved: st.Reserved, Available: st.Available(),
			Backorder: st.Backorder, MinStock: p.MinStock, AverageCost: st.AverageCost,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Available != out[j].Available {
			return out[i].Available < out[j].Available
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memMovements struct {
	s  *memStore
	tx *memTx
}

func (r memMovements) Append(_ context.Context, m *entity.StockMovement) error {
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	c := *m
	r.tx.movements = append(r.tx.movements, &c)
	return nil
}

func (r memMovements) ListByProduct(_ context.Context, id string, limit int) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.movements[i].ProductID == id {
			out = append(out, r.s.movements[i])
		}
	}
	return out, nil
}

func (r memMovements) ListByReference(_ context.Context, refType, refID string) ([]*entity.StockMovement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memLines struct {
	s  *memStore
	tx *memTx
}

func (r memLines) ListUnprocessed(_ context.Context, kind entity.DocumentKind, afterID string, limit int) ([]*entity.DocumentLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.DocumentLine
	for _, l := range r.s.lines[kind] {
		if !l.StockProcessed && l.ID > afterID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memLines) MarkProcessed(_ context.Context, kind entity.DocumentKind, lineID, movementID string) error {
	for _, l := range r.s.lines[kind] {
		if l.ID != lineID {
			continue
		}
		if l.StockProcessed {
			return domain.ErrAlreadyProcessed
		}
		r.tx.marks = append(r.tx.marks, lineMark{kind: kind, lineID: lineID, movementID: movementID})
		return nil
	}
	return domain.ErrNotFound
}

type memProducts struct{ s *memStore }

func (r memProducts) GetPolicy(_ context.Context, id string) (*entity.ProductPolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

// recordingSink registra los eventos emitidos.
type recordingSink struct {
	mu     sync.Mutex
	events []entity.StockChanged
}

func (s *recordingSink) Emit(_ context.Context, e entity.StockChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) all() []entity.StockChanged {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.StockChanged(nil), s.events...)
}

// mapCache caché mínima que cuenta invalidaciones.
type mapCache struct {
	mu            sync.Mutex
	entries       map[string]*entity.StockRecord
	invalidations map[string]int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*entity.StockRecord{}, invalidations: map[string]int{}}
}

func (c *mapCache) GetOrLoad(ctx context.Context, id string, load func(context.Context) (*entity.StockRecord, error)) (*entity.StockRecord, error) {
	c.mu.Lock()
	if rec, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return rec, nil
	}
	c.mu.Unlock()
	rec, err := load(ctx)
	if err != nil || rec == nil {
		return rec, err
	}
	c.mu.Lock()
	c.entries[id] = rec
	c.mu.Unlock()
	return rec, nil
}

func (c *mapCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidations[id]++
}

func (c *mapCache) invalidated(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations[id]
}

type fixture struct {
	store  *memStore
	cache  *mapCache
	sink   *recordingSink
	ledger *inventory.StockLedger
}

func newFixture() *fixture {
	store := newMemStore()
	cache := newMapCache()
	sink := &recordingSink{}
	cfg := inventory.DefaultConfig()
	cfg.RetryBackoff = 0
	ledger := inventory.NewStockLedger(
		store,
		memStocks{s: store},
		memMovements{s: store},
		memProducts{s: store},
		cache, sink, cfg, zerolog.Nop(),
	)
	return &fixture{store: store, cache: cache, sink: sink, ledger: ledger}
}

func boolPtr(b bool) *bool { return &b }
