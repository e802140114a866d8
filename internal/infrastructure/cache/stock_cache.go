package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ inventory.StockCache = (*StockCache)(nil)

// DefaultTTL vigencia de una entrada si no se configura otra.
const DefaultTTL = time.Hour

// StockCache caché de lectura de StockRecord con TTL.
// Las cargas concurrentes de un mismo producto se agrupan (singleflight). Un Invalidate
// que llega con una carga en vuelo la marca como vieja: esa carga no vuelve a poblar
// la caché con el valor anterior al commit.
type StockCache struct {
	store *gocache.Cache
	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]*fill
}

// fill carga en vuelo de un producto; solo vive mientras dura la carga.
type fill struct {
	stale bool
}

// NewStockCache crea la caché; ttl <= 0 usa DefaultTTL.
func NewStockCache(ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StockCache{
		store:    gocache.New(ttl, 2*ttl),
		inflight: make(map[string]*fill),
	}
}

// GetOrLoad devuelve la entrada vigente o llama a load. Los nil (producto sin fila) no se guardan.
// productID puede apuntar a un buffer reutilizable (params de fiber sin Immutable):
// las claves que se guardan son siempre copias.
func (c *StockCache) GetOrLoad(ctx context.Context, productID string, load func(ctx context.Context) (*entity.StockRecord, error)) (*entity.StockRecord, error) {
	key := strings.Clone(productID)
	if v, ok := c.store.Get(key); ok {
		return v.(*entity.StockRecord), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		f := &fill{}
		c.mu.Lock()
		c.inflight[key] = f
		c.mu.Unlock()

		rec, err := load(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[key] == f {
			delete(c.inflight, key)
		}
		if err != nil || rec == nil {
			return rec, err
		}
		if !f.stale {
			c.store.SetDefault(key, rec)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	rec, _ := v.(*entity.StockRecord)
	return rec, nil
}

// Invalidate elimina la entrada del producto. Se llama tras cada commit.
func (c *StockCache) Invalidate(productID string) {
	key := strings.Clone(productID)
	c.mu.Lock()
	if f, ok := c.inflight[key]; ok {
		f.stale = true
	}
	c.store.Delete(key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// Len número de entradas vigentes.
func (c *StockCache) Len() int {
	return c.store.ItemCount()
}

// pending número de cargas en vuelo.
func (c *StockCache) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
