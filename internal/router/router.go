package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dormhub/dormitory-admin/internal/config"
	"github.com/dormhub/dormitory-admin/internal/handler"
	"github.com/dormhub/dormitory-admin/internal/middleware"
)

// Handlers bundles the constructed handlers the routes dispatch to.
type Handlers struct {
	Rooms       *handler.RoomHandler
	Transfers   *handler.TransferHandler
	Maintenance *handler.MaintenanceHandler
	Billing     *handler.BillingHandler
}

// Register registers the health check plus all /v1 routes on the
// provided Echo instance.  Rate limiting applies to the whole /v1
// group; the response cache only wraps GET endpoints, which the
// middleware enforces itself.
func Register(e *echo.Echo, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	g := e.Group(
		"/v1",
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	)

	// ---- Rooms ----
	g.GET("/rooms/:id", h.Rooms.GetRoom)
	g.POST("/rooms/:id/occupancy", h.Rooms.AdjustOccupancy)

	// ---- Transfers ----
	g.POST("/transfers", h.Transfers.Create)
	g.GET("/transfers", h.Transfers.List)
	g.PATCH("/transfers/:id/status", h.Transfers.SetStatus)
	g.DELETE("/transfers/:id", h.Transfers.Delete)

	// ---- Maintenance ----
	g.POST("/maintenances", h.Maintenance.Create)
	g.GET("/maintenances", h.Maintenance.List)
	g.GET("/maintenances/:id", h.Maintenance.Get)
	g.PATCH("/maintenances/:id/status", h.Maintenance.SetStatus)
	g.DELETE("/maintenances/:id", h.Maintenance.Delete)

	// ---- Billing ----
	g.POST("/invoices", h.Billing.CreateInvoice)
	g.GET("/invoices/:id", h.Billing.GetInvoice)
	g.PUT("/invoices/:id/items", h.Billing.ReplaceItems)
	g.DELETE("/invoices/:id", h.Billing.DeleteInvoice)
	g.POST("/invoices/:id/payments", h.Billing.RecordPayment)
	g.GET("/invoices/:id/payments", h.Billing.ListPayments)
	g.POST("/invoices/:id/overdue", h.Billing.MarkOverdue)
	g.PATCH("/payments/:id", h.Billing.UpdatePaymentMeta)
}
