package tpcc

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the transaction endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/new-order", h.NewOrder)
	r.Post("/payment", h.Payment)
	r.Post("/order-status", h.OrderStatus)
	r.Post("/delivery", h.Delivery)
	r.Post("/stock-level", h.StockLevel)
	r.Post("/max-order-id", h.MaxOrderID)
}
