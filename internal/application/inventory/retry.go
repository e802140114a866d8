package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// withRetry ejecuta fn hasta cfg.MaxAttempts veces mientras el error sea transitorio.
// fn debe rehacer la lectura-modificación-escritura completa (nueva tx, nuevo bloqueo).
func withRetry(ctx context.Context, cfg Config, log zerolog.Logger, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return err
		}
		lastErr = err
		log.Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Msg("fallo transitorio en kardex")
		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%s: %w (%d intentos): %v", op, domain.ErrRetriesExhausted, cfg.MaxAttempts, lastErr)
}
