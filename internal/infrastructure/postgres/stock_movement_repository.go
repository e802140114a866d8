package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, type, quantity, quantity_before, quantity_after, shortfall,
	unit_cost, total_cost, reference_type, reference_id, notes, actor_id, movement_date`

// StockMovementRepo kardex sobre PostgreSQL. Solo INSERT: los movimientos son inmutables.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append agrega un movimiento al kardex.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.Type, m.Quantity, m.QuantityBefore, m.QuantityAfter, m.Shortfall,
		m.UnitCost, m.TotalCost, m.ReferenceType, nullString(m.ReferenceID), nullString(m.Notes),
		nullString(m.ActorID), m.MovementDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrConflict)
		}
		return wrapErr("append stock movement", err)
	}
	return nil
}

// ListByProduct movimientos del producto, el más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY movement_date DESC, seq DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, productID, limit)
	if err != nil {
		if pgCode(err) == codeInvalidTextRepr {
			return nil, nil
		}
		return nil, wrapErr("list movements by product", err)
	}
	list, err := collectMovements(rows)
	if err != nil {
		// product_id que no es un UUID válido: no puede tener movimientos
		if pgCode(err) == codeInvalidTextRepr {
			return nil, nil
		}
		return nil, wrapErr("list movements by product", err)
	}
	return list, nil
}

// ListByReference movimientos de un documento externo (índice reference_type, reference_id).
func (r *StockMovementRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, referenceType, referenceID)
	if err != nil {
		return nil, wrapErr("list movements by reference", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var refID, notes, actor *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
			&m.Shortfall, &m.UnitCost, &m.TotalCost, &m.ReferenceType, &refID, &notes, &actor, &m.MovementDate); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.ReferenceID = derefString(refID)
		m.Notes = derefString(notes)
		m.ActorID = derefString(actor)
		list = append(list, &m)
	}
	return list, rows.Err()
}
