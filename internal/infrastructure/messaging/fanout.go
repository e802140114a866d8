package messaging

import (
	"context"
	"errors"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ inventory.EventSink = Fanout(nil)

// Fanout reenvía cada evento a todos los sinks; un fallo no impide los demás.
type Fanout []inventory.EventSink

func (f Fanout) Emit(ctx context.Context, e entity.StockChanged) error {
	var errs []error
	for _, s := range f {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
