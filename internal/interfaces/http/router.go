package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock         inventory.StockService
	Sweeper       Sweeper
	Replenishment ReplenishmentLister
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	stockHandler := NewStockHandler(deps.Stock, deps.Sweeper, deps.Replenishment)

	// Consultas globales antes de /:productId para que no las capture el parámetro
	stock := api.Group("/stock")
	stock.Get("/low", stockHandler.GetLowStock)
	stock.Get("/replenishment", stockHandler.GetReplenishmentList)

	stock.Post("/:productId", stockHandler.InitStock)
	stock.Get("/:productId", stockHandler.GetStock)
	stock.Get("/:productId/available", stockHandler.GetAvailable)
	stock.Get("/:productId/history", stockHandler.GetHistory)
	stock.Post("/:productId/add", stockHandler.AddStock)
	stock.Post("/:productId/reduce", stockHandler.ReduceStock)
	stock.Post("/:productId/reserve", stockHandler.ReserveStock)
	stock.Post("/:productId/release", stockHandler.ReleaseStock)
	stock.Post("/:productId/adjust", stockHandler.AdjustStock)

	// Reconciliación bajo demanda
	api.Post("/reconciliation/run", stockHandler.RunReconciliation)
}
