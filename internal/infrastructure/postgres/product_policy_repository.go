package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.ProductPolicyRepository = (*ProductPolicyRepo)(nil)

// ProductPolicyRepo lee del catálogo (tabla products, propiedad de otro módulo).
type ProductPolicyRepo struct {
	q Querier
}

func NewProductPolicyRepository(q Querier) *ProductPolicyRepo {
	return &ProductPolicyRepo{q: q}
}

// GetPolicy devuelve nil, nil si el producto no existe o el ID no es un UUID válido.
func (r *ProductPolicyRepo) GetPolicy(ctx context.Context, productID string) (*entity.ProductPolicy, error) {
	query := `
		SELECT id, sku, name, min_stock, allow_zero_stock, active
		FROM products WHERE id = $1`
	var p entity.ProductPolicy
	err := r.q.QueryRow(ctx, query, productID).Scan(&p.ProductID, &p.SKU, &p.Name, &p.MinStock, &p.AllowZeroStock, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, nil
		}
		return nil, wrapErr("get product policy", err)
	}
	return &p, nil
}
