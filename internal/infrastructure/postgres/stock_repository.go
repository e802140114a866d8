package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `product_id, quantity, reserved, backorder, average_cost, last_updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	if err := row.Scan(&s.ProductID, &s.Quantity, &s.Reserved, &s.Backorder, &s.AverageCost, &s.LastUpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get lectura sin bloqueo. Devuelve nil, nil si el producto no tiene fila.
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE product_id = $1`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, nil
		}
		return nil, wrapErr("get stock", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE product_id = $1 FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrStockRecordMissing)
		}
		return nil, wrapErr("get stock for update", err)
	}
	return s, nil
}

// Create inserta la fila inicial; si ya existe devuelve la existente sin modificarla.
func (r *StockRepo) Create(ctx context.Context, stock *entity.StockRecord) (*entity.StockRecord, error) {
	query := `
		INSERT INTO stock_records (product_id, quantity, reserved, backorder, average_cost, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id) DO NOTHING
		RETURNING ` + stockColumns
	s, err := scanStock(r.q.QueryRow(ctx, query,
		stock.ProductID, stock.Quantity, stock.Reserved, stock.Backorder, stock.AverageCost, stock.LastUpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.Get(ctx, stock.ProductID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("producto %s: %w", stock.ProductID, domain.ErrStockRecordMissing)
		}
		return existing, nil
	}
	if err != nil {
		return nil, wrapErr("create stock", err)
	}
	return s, nil
}

// Update persiste cantidades y costo; la fila debe existir (se bloqueó antes con GetForUpdate).
func (r *StockRepo) Update(ctx context.Context, stock *entity.StockRecord) error {
	query := `
		UPDATE stock_records
		SET quantity = $2, reserved = $3, backorder = $4, average_cost = $5, last_updated_at = $6
		WHERE product_id = $1`
	tag, err := r.q.Exec(ctx, query,
		stock.ProductID, stock.Quantity, stock.Reserved, stock.Backorder, stock.AverageCost, stock.LastUpdatedAt,
	)
	if err != nil {
		return wrapErr("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("producto %s: %w", stock.ProductID, domain.ErrStockRecordMissing)
	}
	return nil
}

// ListLowStock productos activos con disponible < min_stock, el más crítico primero.
func (r *StockRepo) ListLowStock(ctx context.Context, limit int) ([]entity.LowStockItem, error) {
	query := `
		SELECT p.id, p.sku, p.name, s.quantity, s.reserved,
		       GREATEST(s.quantity - s.reserved, 0) AS available,
		       s.backorder, p.min_stock, s.average_cost
		FROM stock_records s
		JOIN products p ON p.id = s.product_id
		WHERE p.active AND GREATEST(s.quantity - s.reserved, 0) < p.min_stock
		ORDER BY available ASC, p.min_stock DESC, p.id
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, wrapErr("list low stock", err)
	}
	defer rows.Close()

	var list []entity.LowStockItem
	for rows.Next() {
		var it entity.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Quantity, &it.Reserved, &it.Available, &it.Backorder, &it.MinStock, &it.AverageCost); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}
