package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductPolicyRepository lectura del catálogo externo. Devuelve nil, nil si no existe.
type ProductPolicyRepository interface {
	GetPolicy(ctx context.Context, productID string) (*entity.ProductPolicy, error)
}
