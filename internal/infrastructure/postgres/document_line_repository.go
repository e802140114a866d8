package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.DocumentLineRepository = (*DocumentLineRepo)(nil)

// lineTable describe la tabla de líneas de cada tipo de documento.
type lineTable struct {
	name      string
	docColumn string
	costExpr  string
	notesExpr string
}

var lineTables = map[entity.DocumentKind]lineTable{
	entity.DocumentPurchase: {name: "purchase_lines", docColumn: "purchase_id", costExpr: "unit_cost", notesExpr: "notes"},
	entity.DocumentReturn:   {name: "return_lines", docColumn: "return_id", costExpr: "NULL::numeric", notesExpr: "reason"},
}

// DocumentLineRepo líneas de compra/devolución pendientes de aplicar al kardex.
type DocumentLineRepo struct {
	q Querier
}

// NewDocumentLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentLineRepository(q Querier) *DocumentLineRepo {
	return &DocumentLineRepo{q: q}
}

func tableFor(kind entity.DocumentKind) (lineTable, error) {
	t, ok := lineTables[kind]
	if !ok {
		return lineTable{}, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, kind)
	}
	return t, nil
}

func (r *DocumentLineRepo) ListUnprocessed(ctx context.Context, kind entity.DocumentKind, afterID string, limit int) ([]*entity.DocumentLine, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, %s, product_id, quantity, %s, %s, created_by, created_at
		FROM %s
		WHERE NOT stock_processed`, t.docColumn, t.costExpr, t.notesExpr, t.name)
	args := []any{}
	if afterID != "" {
		query += ` AND id > $1`
		args = append(args, afterID)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list unprocessed "+t.name, err)
	}
	defer rows.Close()

	var list []*entity.DocumentLine
	for rows.Next() {
		l := entity.DocumentLine{Kind: kind}
		var cost *decimal.Decimal
		var notes, createdBy *string
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.ProductID, &l.Quantity, &cost, &notes, &createdBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		l.UnitCost = cost
		l.Notes = derefString(notes)
		l.CreatedBy = derefString(createdBy)
		list = append(list, &l)
	}
	return list, rows.Err()
}

// MarkProcessed solo actualiza si la línea sigue pendiente; así dos barridos concurrentes
// no aplican la misma línea dos veces (el segundo hace rollback de su movimiento).
func (r *DocumentLineRepo) MarkProcessed(ctx context.Context, kind entity.DocumentKind, lineID, movementID string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET stock_processed = true, movement_id = $2, processed_at = now()
		WHERE id = $1 AND NOT stock_processed`, t.name)
	tag, err := r.q.Exec(ctx, query, lineID, movementID)
	if err != nil {
		return wrapErr("mark "+t.name+" processed", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", t.name, lineID, domain.ErrAlreadyProcessed)
	}
	return nil
}
