package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// ActorHeader identifica a quien ejecuta la operación cuando el body no trae actor_id.
const ActorHeader = "X-Actor-ID"

// Sweeper barrido de reconciliación bajo demanda.
type Sweeper interface {
	ProcessAll(ctx context.Context) (inventory.SweepResult, error)
}

// ReplenishmentLister lista de reposición.
type ReplenishmentLister interface {
	GenerateReplenishmentList(ctx context.Context, limit int) ([]dto.ReplenishmentSuggestionDTO, error)
}

// StockHandler maneja las peticiones HTTP del kardex.
type StockHandler struct {
	stock         inventory.StockService
	sweeper       Sweeper
	replenishment ReplenishmentLister
}

// NewStockHandler construye el handler.
func NewStockHandler(stock inventory.StockService, sweeper Sweeper, replenishment ReplenishmentLister) *StockHandler {
	return &StockHandler{stock: stock, sweeper: sweeper, replenishment: replenishment}
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.Is(err, domain.ErrStockRecordMissing):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "STOCK_NOT_INITIALIZED", Message: "el producto no tiene stock inicializado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrRetriesExhausted), domain.IsTransient(err):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "RETRY", Message: "operación concurrente, intente de nuevo"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func insufficient(c *fiber.Ctx, message string, available, requested int64) error {
	return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
		Code:      "INSUFFICIENT_STOCK",
		Message:   message,
		Available: available,
		Requested: requested,
	})
}

func actorID(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.Get(ActorHeader)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// InitStock godoc
// @Summary      Inicializar stock de un producto
// @Description  Crea la fila de stock con cantidad 0. Idempotente.
// @Tags         stock
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      201  {object}  dto.StockDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId} [post]
func (h *StockHandler) InitStock(c *fiber.Ctx) error {
	rec, err := h.stock.InitStock(c.Context(), c.Params("productId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockDTO(rec))
}

// GetStock godoc
// @Summary      Consultar stock
// @Tags         stock
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	rec, err := h.stock.GetStock(c.Context(), c.Params("productId"))
	if err != nil {
		return writeError(c, err)
	}
	if rec == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "stock no encontrado"})
	}
	return c.JSON(dto.ToStockDTO(rec))
}

// GetAvailable godoc
// @Summary      Disponible de un producto
// @Description  max(0, quantity - reserved). Con ?quantity=N indica además si alcanza.
// @Tags         stock
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        quantity   query  int     false  "Cantidad a verificar"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/stock/{productId}/available [get]
func (h *StockHandler) GetAvailable(c *fiber.Ctx) error {
	productID := c.Params("productId")
	available, err := h.stock.GetAvailableStock(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	resp := dto.AvailabilityResponse{ProductID: productID, Available: available}
	if qty := int64(c.QueryInt("quantity", 0)); qty > 0 {
		ok, err := h.stock.IsStockAvailable(c.Context(), productID, qty)
		if err != nil {
			return writeError(c, err)
		}
		resp.Requested = qty
		resp.IsAvailable = &ok
	}
	return c.JSON(resp)
}

// GetHistory godoc
// @Summary      Kardex de un producto
// @Description  Movimientos del producto, el más reciente primero.
// @Tags         stock
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        limit      query  int     false  "Máximo de movimientos"
// @Success      200  {array}   dto.MovementDTO
// @Router       /api/stock/{productId}/history [get]
func (h *StockHandler) GetHistory(c *fiber.Ctx) error {
	list, err := h.stock.GetStockHistory(c.Context(), c.Params("productId"), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementDTOs(list))
}

// AddStock godoc
// @Summary      Registrar entrada
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        productId  path  string                    true  "ID del producto"
// @Param        body       body  dto.StockMutationRequest  true  "quantity, reference_type, reference_id, unit_cost"
// @Success      201  {object}  dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId}/add [post]
func (h *StockHandler) AddStock(c *fiber.Ctx) error {
	var in dto.StockMutationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.stock.AddStock(c.Context(), inventory.StockInput{
		ProductID:     c.Params("productId"),
		Quantity:      in.Quantity,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Notes:         in.Notes,
		ActorID:       actorID(c, in.ActorID),
		UnitCost:      in.UnitCost,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementDTO(mov))
}

// ReduceStock godoc
// @Summary      Registrar salida
// @Description  Si el disponible no alcanza y la política no permite venta sin stock responde 409 con available/requested.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        productId  path  string                    true  "ID del producto"
// @Param        body       body  dto.StockMutationRequest  true  "quantity, reference_type, reference_id, allow_zero_stock"
// @Success      201  {object}  dto.ReduceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId}/reduce [post]
func (h *StockHandler) ReduceStock(c *fiber.Ctx) error {
	var in dto.StockMutationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.stock.ReduceStock(c.Context(), inventory.StockInput{
		ProductID:      c.Params("productId"),
		Quantity:       in.Quantity,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		Notes:          in.Notes,
		ActorID:        actorID(c, in.ActorID),
		AllowZeroStock: in.AllowZeroStock,
	})
	if err != nil {
		return writeError(c, err)
	}
	if !res.Success {
		return insufficient(c, res.Message, res.Available, res.Requested)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReduceResponse{
		Success:   true,
		Available: res.Available,
		Requested: res.Requested,
		Remaining: res.Remaining,
		Shortfall: res.Shortfall,
		Movement:  dto.ToMovementDTO(res.Movement),
	})
}

// ReserveStock godoc
// @Summary      Reservar stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        productId  path  string              true  "ID del producto"
// @Param        body       body  dto.ReserveRequest  true  "quantity, reference_id, allow_zero_stock"
// @Success      200  {object}  dto.ReserveResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Router       /api/stock/{productId}/reserve [post]
func (h *StockHandler) ReserveStock(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.stock.ReserveStock(c.Context(), c.Params("productId"), in.Quantity, in.ReferenceID, in.AllowZeroStock)
	if err != nil {
		return writeError(c, err)
	}
	if !res.Success {
		return insufficient(c, res.Message, res.Available, res.Requested)
	}
	return c.JSON(toReserveResponse(res))
}

// ReleaseStock godoc
// @Summary      Liberar stock reservado
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        productId  path  string              true  "ID del producto"
// @Param        body       body  dto.ReleaseRequest  true  "quantity"
// @Success      200  {object}  dto.ReserveResponse
// @Router       /api/stock/{productId}/release [post]
func (h *StockHandler) ReleaseStock(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.stock.ReleaseReservedStock(c.Context(), c.Params("productId"), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReserveResponse(res))
}

func toReserveResponse(res inventory.ReserveResult) dto.ReserveResponse {
	return dto.ReserveResponse{
		Success:   res.Success,
		Message:   res.Message,
		Available: res.Available,
		Requested: res.Requested,
		Reserved:  res.Reserved,
	}
}

// AdjustStock godoc
// @Summary      Ajuste de inventario (opname)
// @Description  Fija la existencia al conteo físico y registra el ajuste en el kardex.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        productId  path  string             true  "ID del producto"
// @Param        body       body  dto.AdjustRequest  true  "new_quantity, reference_id, notes"
// @Success      201  {object}  dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{productId}/adjust [post]
func (h *StockHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.stock.AdjustStock(c.Context(), inventory.AdjustInput{
		ProductID:   c.Params("productId"),
		NewQuantity: in.NewQuantity,
		ReferenceID: in.ReferenceID,
		Notes:       in.Notes,
		ActorID:     actorID(c, in.ActorID),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementDTO(mov))
}

// GetLowStock godoc
// @Summary      Productos bajo stock mínimo
// @Tags         stock
// @Produce      json
// @Param        limit  query  int  false  "Máximo de productos"
// @Success      200  {array}  dto.LowStockItemDTO
// @Router       /api/stock/low [get]
func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.stock.GetLowStockItems(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToLowStockItemDTOs(items))
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Productos bajo mínimo con la cantidad sugerida de pedido, el más urgente primero.
// @Tags         stock
// @Produce      json
// @Param        limit  query  int  false  "Máximo de productos"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock/replenishment [get]
func (h *StockHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// RunReconciliation godoc
// @Summary      Ejecutar reconciliación
// @Description  Aplica al kardex las líneas de compra y devolución pendientes.
// @Tags         reconciliation
// @Produce      json
// @Success      200  {object}  dto.SweepResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/reconciliation/run [post]
func (h *StockHandler) RunReconciliation(c *fiber.Ctx) error {
	res, err := h.sweeper.ProcessAll(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SweepResponse{Purchases: res.Purchases, Returns: res.Returns, Total: res.Total()})
}
