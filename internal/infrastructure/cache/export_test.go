package cache

// Pending expone el número de cargas en vuelo a los tests.
func (c *StockCache) Pending() int { return c.pending() }
