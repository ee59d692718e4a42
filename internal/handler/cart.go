package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/pizzeria/internal/domain/catalog"
	"github.com/xenking/pizzeria/internal/domain/order"
	"github.com/xenking/pizzeria/internal/session"
)

type addLineRequest struct {
	PizzaID string `json:"pizza_id" validate:"required"`
	Size    string `json:"size" validate:"required,oneof=small medium large extra-large"`
}

type adjustLineRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

type checkoutRequest struct {
	Name  string `json:"name" validate:"max=120"`
	Phone string `json:"phone" validate:"max=32"`
}

type cartLineResponse struct {
	Index     int     `json:"index"`
	PizzaID   string  `json:"pizza_id"`
	Name      string  `json:"name"`
	Size      string  `json:"size"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type cartDiscountResponse struct {
	Percentage int     `json:"percentage"`
	LargeUnits int     `json:"large_units"`
	Amount     float64 `json:"amount"`
	Label      string  `json:"label"`
	Hint       string  `json:"hint,omitempty"`
}

type cartDisplayResponse struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type cartResponse struct {
	ID       string               `json:"id"`
	Lines    []cartLineResponse   `json:"lines"`
	Units    int                  `json:"units"`
	Subtotal float64              `json:"subtotal"`
	Discount cartDiscountResponse `json:"discount"`
	Total    float64              `json:"total"`
	Display  cartDisplayResponse  `json:"display"`
}

type sessionResponse struct {
	cartResponse
	Menu []pizzaResponse `json:"menu"`
}

func toCartResponse(q *session.Quote) cartResponse {
	lines := make([]cartLineResponse, len(q.Lines))
	for i, l := range q.Lines {
		lines[i] = cartLineResponse{
			Index:     l.Index,
			PizzaID:   l.Line.ItemID,
			Name:      l.Line.Name,
			Size:      string(l.Line.Size),
			UnitPrice: l.Line.UnitPrice.InexactFloat64(),
			Quantity:  l.Line.Quantity,
			Subtotal:  l.Subtotal.InexactFloat64(),
		}
	}
	subtotal, discount, total := q.Display()
	return cartResponse{
		ID:       q.SessionID,
		Lines:    lines,
		Units:    q.Units,
		Subtotal: q.Subtotal.InexactFloat64(),
		Discount: cartDiscountResponse{
			Percentage: q.Discount.Percentage,
			LargeUnits: q.Discount.LargeUnits,
			Amount:     q.DiscountAmount.InexactFloat64(),
			Label:      q.Label,
			Hint:       q.Hint,
		},
		Total:   q.Total.InexactFloat64(),
		Display: cartDisplayResponse{Subtotal: subtotal, Discount: discount, Total: total},
	}
}

func writeSession(w http.ResponseWriter, status int, s *session.Session) {
	q := session.QuoteOf(s)
	writeJSON(w, status, sessionResponse{
		cartResponse: toCartResponse(&q),
		Menu:         toPizzaResponses(s.Snapshot.Items()),
	})
}

func lineIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &badRequestError{message: "invalid line index", details: map[string]string{"index": raw}}
	}
	return i, nil
}

// OpenCart starts a shopping session with the current menu.
func (h *Handler) OpenCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Open(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, http.StatusCreated, s)
}

// GetCart returns the session cart and its menu.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, http.StatusOK, s)
}

// CloseCart discards the session.
func (h *Handler) CloseCart(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReloadCart refreshes the session menu.
func (h *Handler) ReloadCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Reload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, http.StatusOK, s)
}

// AddLine adds one pizza of a size to the cart.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	size, err := catalog.ParseSize(req.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.sessions.Add(r.Context(), chi.URLParam(r, "id"), req.PizzaID, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(q))
}

// AdjustLine changes the quantity of a line.
func (h *Handler) AdjustLine(w http.ResponseWriter, r *http.Request) {
	index, err := lineIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req adjustLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.sessions.Adjust(r.Context(), chi.URLParam(r, "id"), index, *req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(q))
}

// RemoveLine deletes a line.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	index, err := lineIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.sessions.Remove(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(q))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	q, err := h.sessions.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(q))
}

// Checkout places the order for the session cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.sessions.Checkout(r.Context(), chi.URLParam(r, "id"), order.Customer{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}
