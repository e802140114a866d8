package inventory

import "time"

// Config parámetros del motor de kardex. Se pasa en la construcción y puede
// reemplazarse en caliente con StockLedger.UpdateConfig.
type Config struct {
	MaxAttempts           int           // intentos ante deadlock/lock timeout (incluye el primero)
	RetryBackoff          time.Duration // espera base entre intentos, crece linealmente
	DefaultAllowZeroStock bool          // permite venta sin stock en todos los productos si el caller no decide
	LowStockLimit         int           // límite por defecto de GetLowStockItems
	HistoryLimit          int           // límite por defecto de GetStockHistory
	SweepBatchSize        int           // líneas por lote en la reconciliación
}

// DefaultConfig valores por defecto (3 intentos, como el sistema original).
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		RetryBackoff:   25 * time.Millisecond,
		LowStockLimit:  50,
		HistoryLimit:   50,
		SweepBatchSize: 100,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	if c.LowStockLimit <= 0 {
		c.LowStockLimit = def.LowStockLimit
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.SweepBatchSize <= 0 {
		c.SweepBatchSize = def.SweepBatchSize
	}
	return c
}
