package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// idealStockFactor el stock ideal es 1.5 veces el mínimo.
var idealStockFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición a partir de los productos bajo mínimo.
type ReplenishmentUseCase struct {
	stock StockService
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stock StockService) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stock: stock}
}

// GenerateReplenishmentList devuelve los productos bajo stock mínimo con la cantidad sugerida
// de pedido. La sugerencia cubre hasta el stock ideal más el backorder pendiente; primero van
// los productos con ventas sin stock, luego los de mayor déficit.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, limit int) ([]dto.ReplenishmentSuggestionDTO, error) {
	items, err := uc.stock.GetLowStockItems(ctx, limit)
	if err != nil {
		return nil, err
	}
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(items))
	for _, item := range items {
		suggestions = append(suggestions, suggest(item))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Backorder != b.Backorder {
			return a.Backorder > b.Backorder
		}
		defA := a.MinStock - a.Available
		defB := b.MinStock - b.Available
		if defA != defB {
			return defA > defB
		}
		return a.ProductID < b.ProductID
	})

	// 1 = más urgente
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func suggest(item entity.LowStockItem) dto.ReplenishmentSuggestionDTO {
	ideal := decimal.NewFromInt(item.MinStock).Mul(idealStockFactor).Ceil().IntPart()
	qty := max(0, ideal-item.Available+item.Backorder)
	return dto.ReplenishmentSuggestionDTO{
		ProductID:          item.ProductID,
		SKU:                item.SKU,
		ProductName:        item.Name,
		Available:          item.Available,
		Backorder:          item.Backorder,
		MinStock:           item.MinStock,
		IdealStock:         ideal,
		SuggestedOrderQty:  qty,
		UnitCost:           item.AverageCost,
		EstimatedOrderCost: item.AverageCost.Mul(decimal.NewFromInt(qty)),
	}
}
