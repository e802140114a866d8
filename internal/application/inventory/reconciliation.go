package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// SystemActor actor registrado en movimientos generados por la reconciliación.
const SystemActor = "system:reconciliation"

// SweepResult conteo de líneas aplicadas por ProcessAll.
type SweepResult struct {
	Purchases int `json:"purchases"`
	Returns   int `json:"returns"`
}

// Total suma compras y devoluciones.
func (r SweepResult) Total() int { return r.Purchases + r.Returns }

// ReconciliationSweeper aplica al kardex las líneas de compra/devolución que quedaron
// sin procesar (caída, fallo parcial, alta por fuera). El movimiento y la marca de
// procesado van en la misma transacción, así que re-ejecutar es seguro.
type ReconciliationSweeper struct {
	ledger *StockLedger
	lines  repository.DocumentLineRepository
	log    zerolog.Logger
}

// NewReconciliationSweeper construye el barrido sobre el motor.
func NewReconciliationSweeper(ledger *StockLedger, lines repository.DocumentLineRepository, log zerolog.Logger) *ReconciliationSweeper {
	return &ReconciliationSweeper{
		ledger: ledger,
		lines:  lines,
		log:    log.With().Str("component", "reconciliation").Logger(),
	}
}

// ProcessUnprocessedPurchases aplica AddStock a cada línea de compra pendiente.
func (s *ReconciliationSweeper) ProcessUnprocessedPurchases(ctx context.Context) (int, error) {
	return s.process(ctx, entity.DocumentPurchase)
}

// ProcessUnprocessedReturns aplica ReduceStock a cada línea de devolución pendiente.
func (s *ReconciliationSweeper) ProcessUnprocessedReturns(ctx context.Context) (int, error) {
	return s.process(ctx, entity.DocumentReturn)
}

// ProcessAll ejecuta ambos barridos en paralelo y devuelve los conteos.
func (s *ReconciliationSweeper) ProcessAll(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.ProcessUnprocessedPurchases(gctx)
		res.Purchases = n
		return err
	})
	g.Go(func() error {
		n, err := s.ProcessUnprocessedReturns(gctx)
		res.Returns = n
		return err
	})
	err := g.Wait()
	s.log.Info().
		Int("purchases", res.Purchases).
		Int("returns", res.Returns).
		Msg("reconciliación terminada")
	return res, err
}

// Run ejecuta ProcessAll cada interval hasta que ctx termine.
func (s *ReconciliationSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ProcessAll(ctx); err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("barrido de reconciliación")
			}
		}
	}
}

// process recorre las líneas pendientes por lotes (keyset por ID). Un fallo en una línea
// se registra y se continúa; solo un fallo al listar aborta el barrido.
func (s *ReconciliationSweeper) process(ctx context.Context, kind entity.DocumentKind) (int, error) {
	batch := s.ledger.Config().SweepBatchSize
	processed := 0
	afterID := ""
	for {
		lines, err := s.lines.ListUnprocessed(ctx, kind, afterID, batch)
		if err != nil {
			return processed, fmt.Errorf("listar líneas %s pendientes: %w", kind, err)
		}
		for _, line := range lines {
			if err := ctx.Err(); err != nil {
				return processed, err
			}
			afterID = line.ID
			if err := s.applyLine(ctx, line); err != nil {
				if errors.Is(err, domain.ErrAlreadyProcessed) {
					s.log.Debug().Str("line_id", line.ID).Msg("línea ya procesada por otro barrido")
					continue
				}
				s.log.Warn().Err(err).
					Str("kind", string(kind)).
					Str("line_id", line.ID).
					Str("product_id", line.ProductID).
					Msg("línea no aplicada, se reintentará en el próximo barrido")
				continue
			}
			processed++
		}
		if len(lines) < batch {
			return processed, nil
		}
	}
}

func (s *ReconciliationSweeper) applyLine(ctx context.Context, line *entity.DocumentLine) error {
	actor := line.CreatedBy
	if actor == "" {
		actor = SystemActor
	}
	in := StockInput{
		ProductID:     line.ProductID,
		Quantity:      line.Quantity,
		ReferenceType: line.Kind.ReferenceType(),
		ReferenceID:   line.DocumentID,
		Notes:         line.Notes,
		ActorID:       actor,
	}
	mark := func(ctx context.Context, tx txScope, mov *entity.StockMovement) error {
		return tx.lines.MarkProcessed(ctx, line.Kind, line.ID, mov.ID)
	}

	switch line.Kind {
	case entity.DocumentPurchase:
		in.UnitCost = line.UnitCost
		_, err := s.ledger.addStock(ctx, in, mark)
		return err
	case entity.DocumentReturn:
		res, err := s.ledger.reduceStock(ctx, in, mark)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, res.Message)
		}
		return nil
	}
	return fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, line.Kind)
}
