package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pizzeria/internal/domain/order"
)

type customerResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type orderLineResponse struct {
	PizzaID   string  `json:"pizza_id"`
	Name      string  `json:"name"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type orderDiscountResponse struct {
	Percentage int     `json:"percentage"`
	Amount     float64 `json:"amount"`
}

type orderResponse struct {
	ID        string                `json:"id"`
	Customer  customerResponse      `json:"customer"`
	Items     []orderLineResponse   `json:"items"`
	Subtotal  float64               `json:"subtotal"`
	Discount  orderDiscountResponse `json:"discount"`
	Total     float64               `json:"total"`
	Status    string                `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = orderLineResponse{
			PizzaID:   l.ItemID,
			Name:      l.Name,
			Size:      string(l.Size),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.InexactFloat64(),
			Subtotal:  l.Subtotal.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:       o.ID,
		Customer: customerResponse{Name: o.Customer.Name, Phone: o.Customer.Phone},
		Items:    items,
		Subtotal: o.Subtotal.InexactFloat64(),
		Discount: orderDiscountResponse{
			Percentage: o.Discount.Percentage,
			Amount:     o.Discount.Amount.InexactFloat64(),
		},
		Total:     o.Total.InexactFloat64(),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

type statsResponse struct {
	TotalSales float64 `json:"total_sales"`
	Orders     int     `json:"orders"`
	Pending    int     `json:"pending"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListOrders returns every order, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder returns one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateOrderStatus moves an order along the kitchen flow.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// DeleteOrder removes an order.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderStats returns the sales summary.
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.orders.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalSales: st.TotalSales.InexactFloat64(),
		Orders:     st.Orders,
		Pending:    st.Pending,
	})
}
