package http_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// memStore almacén en memoria para probar la API contra el motor real.
// Run serializa las transacciones y aplica los cambios solo si fn no falla.
type memStore struct {
	mu        sync.Mutex
	stocks    map[string]*entity.StockRecord
	movements []*entity.StockMovement
	products  map[string]*entity.ProductPolicy
}

func newMemStore() *memStore {
	return &memStore{
		stocks:   map[string]*entity.StockRecord{},
		products: map[string]*entity.ProductPolicy{},
	}
}

func (s *memStore) addProduct(id string, quantity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &entity.ProductPolicy{ProductID: id, SKU: "SKU-" + id, Name: id, Active: true}
	s.stocks[id] = &entity.StockRecord{ProductID: id, Quantity: quantity}
}

type memTx struct {
	stocks    map[string]*entity.StockRecord
	movements []*entity.StockMovement
}

func (s *memStore) Run(_ context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	lineRepo repository.DocumentLineRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{stocks: map[string]*entity.StockRecord{}}
	if err := fn(memStocks{s, tx}, memMovements{s, tx}, noLines{}); err != nil {
		return err
	}
	for id, st := range tx.stocks {
		s.stocks[id] = st
	}
	s.movements = append(s.movements, tx.movements...)
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
	r.tx.stocks[st.ProductID] = st.Clone()
	return nil
}

func (r memStocks) ListLowStock(context.Context, int) ([]entity.LowStockItem, error) {
	return nil, nil
}

type memMovements struct {
	s  *memStore
	tx *memTx
}

func (r memMovements) Append(_ context.Context, m *entity.StockMovement) error {
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

func (r memMovements) ListByReference(context.Context, string, string) ([]*entity.StockMovement, error) {
	return nil, nil
}

type noLines struct{}

func (noLines) ListUnprocessed(context.Context, entity.DocumentKind, string, int) ([]*entity.DocumentLine, error) {
	return nil, nil
}

func (noLines) MarkProcessed(context.Context, entity.DocumentKind, string, string) error {
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
