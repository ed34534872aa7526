package http

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-kardex/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName              string
	Movements            *inventory.MovementService
	Ledger               *inventory.LedgerService
	Balances             *inventory.BalanceService
	JWTSecret            string
	AllowNegativeDefault bool
	ExportPageSize       int
	SwaggerFile          string // vacío = sin UI de documentación
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Swagger UI en local: http://localhost:<port>/docs
	if deps.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: deps.SwaggerFile,
			Path:     "docs",
			Title:    "Inventario Kardex API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(RoleAdmin, RoleBodeguero)

	// Documentos de movimiento
	movements := api.Group("/movements")
	movementHandler := NewMovementHandler(deps.Movements, deps.AllowNegativeDefault)
	movements.Post("/", writers, movementHandler.Create)
	movements.Get("/:id", movementHandler.Get)
	movements.Put("/:id", writers, movementHandler.Update)
	movements.Delete("/:id", writers, movementHandler.Delete)
	movements.Post("/:id/publish", writers, movementHandler.Publish)
	movements.Post("/:id/void", RequireRole(RoleAdmin), movementHandler.Void)

	// Kardex
	kardexHandler := NewKardexHandler(deps.Ledger, nil, deps.ExportPageSize)
	api.Get("/items/:id/kardex", kardexHandler.GetLedger)

	// Saldos por bodega
	warehouses := api.Group("/warehouses")
	balanceHandler := NewBalanceHandler(deps.Balances)
	warehouses.Get("/:id/average-costs", balanceHandler.AverageCosts)
	warehouses.Post("/:id/items", writers, balanceHandler.AssignItem)
	warehouses.Patch("/:id/items/:itemId", writers, balanceHandler.UpdateThresholds)
	warehouses.Delete("/:id/items/:itemId", RequireRole(RoleAdmin), balanceHandler.UnassignItem)
}
