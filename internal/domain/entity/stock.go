package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord es la fila de stock de un producto (una por producto).
// Quantity nunca es negativa; Reserved puede superar a Quantity por política,
// por eso el disponible se calcula siempre con Available().
type StockRecord struct {
	ProductID     string
	Quantity      int64
	Reserved      int64
	Backorder     int64           // unidades vendidas sin existencia (sobreventa acumulada)
	AverageCost   decimal.Decimal // costo promedio ponderado
	LastUpdatedAt time.Time
}

// NewStockRecord crea el registro inicial de un producto recién dado de alta.
func NewStockRecord(productID string, now time.Time) *StockRecord {
	return &StockRecord{
		ProductID:     productID,
		AverageCost:   decimal.Zero,
		LastUpdatedAt: now,
	}
}

// Available devuelve quantity - reserved acotado en cero.
func (s *StockRecord) Available() int64 {
	return max(0, s.Quantity-s.Reserved)
}

// Clone devuelve una copia independiente del registro.
func (s *StockRecord) Clone() *StockRecord {
	c := *s
	return &c
}

// LowStockItem producto cuyo disponible está por debajo del stock mínimo.
type LowStockItem struct {
	ProductID   string
	SKU         string
	Name        string
	Quantity    int64
	Reserved    int64
	Available   int64
	Backorder   int64
	MinStock    int64
	AverageCost decimal.Decimal
}
