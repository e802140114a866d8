// Package bootstrap arma el kardex sobre PostgreSQL para los binarios (api y ledgerctl).
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/messaging"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// Ledger motor, barrido y reposición listos para usar. Close libera pool y sinks.
type Ledger struct {
	Stock         *inventory.StockLedger
	Sweeper       *inventory.ReconciliationSweeper
	Replenishment *inventory.ReplenishmentUseCase

	pool       *pgxpool.Pool
	closeSinks func() error
}

// EngineConfig traduce la configuración de entorno a la del motor.
func EngineConfig(c config.LedgerConfig) inventory.Config {
	cfg := inventory.DefaultConfig()
	cfg.MaxAttempts = c.MaxAttempts
	cfg.RetryBackoff = c.RetryBackoff
	cfg.DefaultAllowZeroStock = c.DefaultAllowZeroStock
	if c.SweepBatchSize > 0 {
		cfg.SweepBatchSize = c.SweepBatchSize
	}
	return cfg
}

// NewLedger conecta a PostgreSQL, abre los sinks de eventos y construye el motor.
func NewLedger(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Ledger, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}

	sink, closeSinks, err := messaging.NewSinks(cfg.Events, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sinks de eventos: %w", err)
	}

	lines := postgres.NewDocumentLineRepository(pool)
	ledger := inventory.NewStockLedger(
		postgres.NewTxRunner(pool, cfg.DB.LockTimeout),
		postgres.NewStockRepository(pool),
		postgres.NewStockMovementRepository(pool),
		postgres.NewProductPolicyRepository(pool),
		cache.NewStockCache(cfg.Ledger.CacheTTL),
		sink,
		EngineConfig(cfg.Ledger),
		log,
	)

	return &Ledger{
		Stock:         ledger,
		Sweeper:       inventory.NewReconciliationSweeper(ledger, lines, log),
		Replenishment: inventory.NewReplenishmentUseCase(ledger),
		pool:          pool,
		closeSinks:    closeSinks,
	}, nil
}

// Close cierra los sinks y después el pool.
func (l *Ledger) Close() error {
	err := l.closeSinks()
	l.pool.Close()
	return err
}
