package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-ncf/internal/application/sequencing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReceiptTypeUC  *sequencing.ReceiptTypeUseCase
	SeriesUC       *sequencing.SeriesUseCase
	Monitor        *sequencing.ExhaustionMonitor
	InvoiceUC      *sequencing.InvoiceUseCase
	QuoteUC        *sequencing.QuoteUseCase
	AlertThreshold int64
	JWTSecret      string
	JWTIssuer      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Todo /api requiere Bearer Token; el tenant sale del company_id del token.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	adminOnly := RequireRole(RoleAdmin)

	types := api.Group("/receipt-types")
	typeHandler := NewReceiptTypeHandler(deps.ReceiptTypeUC)
	types.Post("/", adminOnly, typeHandler.Create)
	types.Get("/", typeHandler.List)
	types.Get("/:id", typeHandler.GetByID)
	types.Put("/:id", adminOnly, typeHandler.Update)

	series := api.Group("/receipt-series")
	seriesHandler := NewSeriesHandler(deps.SeriesUC, deps.Monitor, deps.AlertThreshold)
	series.Post("/", adminOnly, seriesHandler.Create)
	series.Get("/", seriesHandler.List)
	series.Get("/alerts", seriesHandler.Alerts)
	series.Get("/:id", seriesHandler.GetByID)
	series.Patch("/:id", adminOnly, seriesHandler.Update)
	series.Post("/:id/void", adminOnly, seriesHandler.Void)
	series.Get("/:id/receipts", seriesHandler.Receipts)

	receipts := api.Group("/receipts")
	receiptHandler := NewReceiptHandler(deps.SeriesUC)
	receipts.Get("/available", receiptHandler.Available)
	receipts.Get("/availability", receiptHandler.Availability)

	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/activate", invoiceHandler.Activate)
	invoices.Post("/:id/state", invoiceHandler.Transition)

	quotes := api.Group("/quotes")
	quoteHandler := NewQuoteHandler(deps.QuoteUC)
	quotes.Post("/", quoteHandler.Create)
	quotes.Get("/", quoteHandler.List)
	quotes.Get("/:id", quoteHandler.GetByID)
}
