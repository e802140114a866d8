package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockMutationRequest body para POST /api/stock/:productId/add y /reduce.
type StockMutationRequest struct {
	Quantity       int64            `json:"quantity"`
	ReferenceType  string           `json:"reference_type"`
	ReferenceID    string           `json:"reference_id"`
	Notes          string           `json:"notes,omitempty"`
	ActorID        string           `json:"actor_id,omitempty"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`        // solo entradas
	AllowZeroStock *bool            `json:"allow_zero_stock,omitempty"` // solo salidas; vacío = política del producto
}

// ReserveRequest body para POST /api/stock/:productId/reserve.
type ReserveRequest struct {
	Quantity       int64  `json:"quantity"`
	ReferenceID    string `json:"reference_id"`
	AllowZeroStock bool   `json:"allow_zero_stock"`
}

// ReleaseRequest body para POST /api/stock/:productId/release.
type ReleaseRequest struct {
	Quantity int64 `json:"quantity"`
}

// AdjustRequest body para POST /api/stock/:productId/adjust (opname).
type AdjustRequest struct {
	NewQuantity int64  `json:"new_quantity"`
	ReferenceID string `json:"reference_id"`
	Notes       string `json:"notes,omitempty"`
	ActorID     string `json:"actor_id,omitempty"`
}

// StockDTO estado de stock de un producto.
type StockDTO struct {
	ProductID     string          `json:"product_id"`
	Quantity      int64           `json:"quantity"`
	Reserved      int64           `json:"reserved"`
	Available     int64           `json:"available"`
	Backorder     int64           `json:"backorder"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}

// ToStockDTO convierte la entidad en DTO.
func ToStockDTO(s *entity.StockRecord) StockDTO {
	return StockDTO{
		ProductID:     s.ProductID,
		Quantity:      s.Quantity,
		Reserved:      s.Reserved,
		Available:     s.Available(),
		Backorder:     s.Backorder,
		AverageCost:   s.AverageCost,
		LastUpdatedAt: s.LastUpdatedAt,
	}
}

// MovementDTO registro del kardex.
type MovementDTO struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	Type           string          `json:"type"`
	Quantity       int64           `json:"quantity"`
	QuantityBefore int64           `json:"quantity_before"`
	QuantityAfter  int64           `json:"quantity_after"`
	Shortfall      int64           `json:"shortfall,omitempty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	ReferenceType  string          `json:"reference_type"`
	ReferenceID    string          `json:"reference_id"`
	Notes          string          `json:"notes,omitempty"`
	ActorID        string          `json:"actor_id,omitempty"`
	MovementDate   time.Time       `json:"movement_date"`
}

// ToMovementDTO convierte la entidad en DTO. nil devuelve nil.
func ToMovementDTO(m *entity.StockMovement) *MovementDTO {
	if m == nil {
		return nil
	}
	return &MovementDTO{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Shortfall:      m.Shortfall,
		UnitCost:       m.UnitCost,
		TotalCost:      m.TotalCost,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		Notes:          m.Notes,
		ActorID:        m.ActorID,
		MovementDate:   m.MovementDate,
	}
}

// ToMovementDTOs convierte una lista de movimientos.
func ToMovementDTOs(list []*entity.StockMovement) []MovementDTO {
	out := make([]MovementDTO, 0, len(list))
	for _, m := range list {
		out = append(out, *ToMovementDTO(m))
	}
	return out
}

// ReduceResponse resultado de una salida.
type ReduceResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message,omitempty"`
	Available int64        `json:"available"`
	Requested int64        `json:"requested"`
	Remaining int64        `json:"remaining"`
	Shortfall int64        `json:"shortfall,omitempty"`
	Movement  *MovementDTO `json:"movement,omitempty"`
}

// ReserveResponse resultado de una reserva o liberación.
type ReserveResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
	Reserved  int64  `json:"reserved"`
}

// InsufficientStockResponse cuerpo del 409 cuando el disponible no alcanza.
type InsufficientStockResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
}

// AvailabilityResponse respuesta de GET /api/stock/:productId/available.
type AvailabilityResponse struct {
	ProductID   string `json:"product_id"`
	Available   int64  `json:"available"`
	Requested   int64  `json:"requested,omitempty"`
	IsAvailable *bool  `json:"is_available,omitempty"` // solo si se pidió ?quantity=
}

// LowStockItemDTO producto bajo stock mínimo.
type LowStockItemDTO struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Reserved  int64  `json:"reserved"`
	Available int64  `json:"available"`
	Backorder int64  `json:"backorder"`
	MinStock  int64  `json:"min_stock"`
}

// ToLowStockItemDTOs convierte la lista de productos bajo mínimo.
func ToLowStockItemDTOs(items []entity.LowStockItem) []LowStockItemDTO {
	out := make([]LowStockItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, LowStockItemDTO{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Reserved:  it.Reserved,
			Available: it.Available,
			Backorder: it.Backorder,
			MinStock:  it.MinStock,
		})
	}
	return out
}

// ReplenishmentSuggestionDTO sugerencia de pedido para un producto bajo su stock mínimo.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	Available          int64           `json:"available"`
	Backorder          int64           `json:"backorder"`
	MinStock           int64           `json:"min_stock"`
	IdealStock         int64           `json:"ideal_stock"`          // ceil(MinStock * 1.5)
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // IdealStock - Available + Backorder
	UnitCost           decimal.Decimal `json:"unit_cost"`            // costo promedio ponderado
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// SweepResponse resultado de POST /api/reconciliation/run.
type SweepResponse struct {
	Purchases int `json:"purchases"`
	Returns   int `json:"returns"`
	Total     int `json:"total"`
}
