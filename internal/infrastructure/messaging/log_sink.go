package messaging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ inventory.EventSink = (*LogSink)(nil)

// LogSink escribe cada evento en el log estructurado.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("sink", "log").Logger()}
}

func (s *LogSink) Emit(_ context.Context, e entity.StockChanged) error {
	s.log.Info().
		Str("product_id", e.ProductID).
		Str("type", e.Type).
		Int64("quantity_delta", e.QuantityDelta).
		Int64("reserved_delta", e.ReservedDelta).
		Int64("quantity_after", e.QuantityAfter).
		Str("movement_id", e.MovementID).
		Time("timestamp", e.Timestamp).
		Msg("stock changed")
	return nil
}
