// Package handler exposes the storefront over REST: menu administration,
// shopping sessions for the customer screen and the order book for the
// operations screen.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pizzeria/internal/domain/catalog"
	"github.com/xenking/pizzeria/internal/domain/order"
	"github.com/xenking/pizzeria/internal/session"
)

// Handler serves the /api routes, delegating business logic to the catalog
// and order services and the session controller.
type Handler struct {
	catalog  *catalog.Service
	orders   *order.Service
	sessions *session.Controller
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalogSvc *catalog.Service,
	orders *order.Service,
	sessions *session.Controller,
) *Handler {
	return &Handler{
		catalog:  catalogSvc,
		orders:   orders,
		sessions: sessions,
	}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/pizzas", func(r chi.Router) {
		r.Get("/", h.ListPizzas)
		r.Post("/", h.CreatePizza)
		r.Get("/{id}", h.GetPizza)
		r.Put("/{id}", h.UpdatePizza)
		r.Delete("/{id}", h.DeletePizza)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/stats", h.OrderStats)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}", h.UpdateOrderStatus)
		r.Delete("/{id}", h.DeleteOrder)
	})

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.OpenCart)
		r.Get("/{id}", h.GetCart)
		r.Delete("/{id}", h.CloseCart)
		r.Post("/{id}/reload", h.ReloadCart)
		r.Post("/{id}/lines", h.AddLine)
		r.Delete("/{id}/lines", h.ClearCart)
		r.Patch("/{id}/lines/{index}", h.AdjustLine)
		r.Delete("/{id}/lines/{index}", h.RemoveLine)
		r.Post("/{id}/checkout", h.Checkout)
	})
}

// Router returns a chi router with every endpoint mounted under /api.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}
