package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/pizzeria/internal/domain/catalog"
)

type pricesBody struct {
	Small      decimal.Decimal `json:"small"`
	Medium     decimal.Decimal `json:"medium"`
	Large      decimal.Decimal `json:"large"`
	ExtraLarge decimal.Decimal `json:"extra-large"`
}

type pizzaRequest struct {
	Name        string     `json:"name" validate:"required,max=120"`
	Description string     `json:"description" validate:"required,max=500"`
	Prices      pricesBody `json:"prices"`
}

func (p pizzaRequest) toDomain() catalog.Item {
	return catalog.Item{
		Name:        p.Name,
		Description: p.Description,
		Prices: catalog.Prices{
			catalog.SizeSmall:      p.Prices.Small,
			catalog.SizeMedium:     p.Prices.Medium,
			catalog.SizeLarge:      p.Prices.Large,
			catalog.SizeExtraLarge: p.Prices.ExtraLarge,
		},
	}
}

type pizzaResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Prices      map[string]float64 `json:"prices"`
}

func toPizzaResponse(item catalog.Item) pizzaResponse {
	prices := make(map[string]float64, len(item.Prices))
	for size, p := range item.Prices {
		prices[string(size)] = p.InexactFloat64()
	}
	return pizzaResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Prices:      prices,
	}
}

func toPizzaResponses(items []catalog.Item) []pizzaResponse {
	out := make([]pizzaResponse, len(items))
	for i, item := range items {
		out[i] = toPizzaResponse(item)
	}
	return out
}

// ListPizzas returns the whole menu.
func (h *Handler) ListPizzas(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPizzaResponses(items))
}

// GetPizza returns one pizza.
func (h *Handler) GetPizza(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPizzaResponse(*item))
}

// CreatePizza adds a pizza to the menu.
func (h *Handler) CreatePizza(w http.ResponseWriter, r *http.Request) {
	var req pizzaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.catalog.Create(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPizzaResponse(*item))
}

// UpdatePizza replaces a pizza.
func (h *Handler) UpdatePizza(w http.ResponseWriter, r *http.Request) {
	var req pizzaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPizzaResponse(*item))
}

// DeletePizza removes a pizza from the menu.
func (h *Handler) DeletePizza(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
