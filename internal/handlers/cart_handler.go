package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

type CartHandler struct {
	carts services.CartService
	items services.ItemService
}

func NewCartHandler(carts services.CartService, items services.ItemService) *CartHandler {
	return &CartHandler{carts: carts, items: items}
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if _, err := h.items.GetByID(r.Context(), itemID); err != nil {
		if err == services.ErrItemNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
			return
		}
		log.Printf("[CartHandler] item lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	entry, err := h.carts.Add(r.Context(), userID, itemID)
	if err != nil {
		if err == services.ErrAlreadyInCart {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse(models.CodeConflict, "Item already in cart"))
			return
		}
		log.Printf("[CartHandler] add failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(entry))
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if err := h.carts.Remove(r.Context(), userID, itemID); err != nil {
		if err == services.ErrCartEntryNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Cart entry not found"))
			return
		}
		log.Printf("[CartHandler] remove failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "removed"}))
}

func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	entries, err := h.carts.List(r.Context(), userID)
	if err != nil {
		log.Printf("[CartHandler] list failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	enriched := make([]models.CartEntryWithItem, 0, len(entries))
	for _, entry := range entries {
		e := models.CartEntryWithItem{CartEntry: *entry}
		if item, err := h.items.GetByID(r.Context(), entry.ItemID); err == nil {
			e.Item = *item
		}
		enriched = append(enriched, e)
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(enriched))
}
