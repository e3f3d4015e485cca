package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

type WishlistHandler struct {
	wishlists services.WishlistService
	items     services.ItemService
}

func NewWishlistHandler(wishlists services.WishlistService, items services.ItemService) *WishlistHandler {
	return &WishlistHandler{wishlists: wishlists, items: items}
}

func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if _, err := h.items.GetByID(r.Context(), itemID); err != nil {
		if err == services.ErrItemNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
			return
		}
		log.Printf("[WishlistHandler] item lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	entry, err := h.wishlists.Add(r.Context(), userID, itemID)
	if err != nil {
		if err == services.ErrAlreadyInWishlist {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse(models.CodeConflict, "Item already in wishlist"))
			return
		}
		log.Printf("[WishlistHandler] add failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(entry))
}

func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if err := h.wishlists.Remove(r.Context(), userID, itemID); err != nil {
		if err == services.ErrWishlistEntryNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Wishlist entry not found"))
			return
		}
		log.Printf("[WishlistHandler] remove failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "removed"}))
}

func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	entries, err := h.wishlists.List(r.Context(), userID)
	if err != nil {
		log.Printf("[WishlistHandler] list failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	// Attach the item where it still exists; dangling entries are returned bare.
	enriched := make([]models.WishlistEntryWithItem, 0, len(entries))
	for _, entry := range entries {
		e := models.WishlistEntryWithItem{WishlistEntry: *entry}
		if item, err := h.items.GetByID(r.Context(), entry.ItemID); err == nil {
			e.Item = *item
		}
		enriched = append(enriched, e)
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(enriched))
}
