package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/moya-nicolau/ecommerce-api/internal/cart"
)

// CartService is the slice of the cart service the handlers consume.
type CartService interface {
	Current(ctx context.Context, cartID int64) (*cart.Cart, error)
	AddItems(ctx context.Context, cartID int64, requests []cart.LineRequest) (cart.Result, error)
	RemoveItems(ctx context.Context, cartID int64, requests []cart.LineRequest) (cart.Result, error)
}

type CartHandler struct {
	service CartService
}

func NewCartHandler(service CartService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) Current(w http.ResponseWriter, r *http.Request) {
	c := CartFromContext(r.Context())

	loaded, err := h.service.Current(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	writeJSON(w, http.StatusOK, loaded)
}

func (h *CartHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.AddItems)
}

func (h *CartHandler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.RemoveItems)
}

func (h *CartHandler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, int64, []cart.LineRequest) (cart.Result, error),
) {
	var requests []cart.LineRequest
	if err := json.NewDecoder(r.Body).Decode(&requests); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	c := CartFromContext(r.Context())

	result, err := op(r.Context(), c.ID, requests)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	if !result.Success {
		writeErrors(w, http.StatusUnprocessableEntity, result.Errors)
		return
	}

	writeJSON(w, http.StatusOK, result.Record)
}
