package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

type ItemHandler struct {
	items    services.ItemService
	notifier *services.Notifier
}

func NewItemHandler(items services.ItemService, notifier *services.Notifier) *ItemHandler {
	return &ItemHandler{items: items, notifier: notifier}
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.CreateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	item, err := h.items.Create(r.Context(), userID, &req)
	if err != nil {
		log.Printf("[ItemHandler] create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(item))
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	item, err := h.items.GetByID(r.Context(), itemID)
	if err != nil {
		if err == services.ErrItemNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
			return
		}
		log.Printf("[ItemHandler] get failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(item))
}

// View records one view on the item. The client calls this when a listing is
// actually opened, separate from fetching the document.
func (h *ItemHandler) View(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.items.RecordView(r.Context(), itemID); err != nil {
		if err == services.ErrItemNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
			return
		}
		log.Printf("[ItemHandler] view count failed item=%s: %v", itemID, err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "recorded"}))
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	var req models.UpdateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	item, err := h.items.Update(r.Context(), userID, itemID, &req)
	if err != nil {
		switch err {
		case services.ErrItemNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
		case services.ErrNotItemOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You do not own this item"))
		default:
			log.Printf("[ItemHandler] update failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(item))
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	if err := h.items.Delete(r.Context(), userID, itemID); err != nil {
		switch err {
		case services.ErrItemNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
		case services.ErrNotItemOwner:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You do not own this item"))
		default:
			log.Printf("[ItemHandler] delete failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "deleted"}))
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.items.ListActive(r.Context(), limit)
	if err != nil {
		log.Printf("[ItemHandler] list failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(items))
}

func (h *ItemHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	item, err := h.items.RecordLike(r.Context(), itemID)
	if err != nil {
		if err == services.ErrItemNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
			return
		}
		log.Printf("[ItemHandler] like failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	if item.OwnerID != userID {
		h.notifier.Send(r.Context(), models.NotificationEvent{
			FromUserID: userID,
			ToUserID:   item.OwnerID,
			Type:       models.NotificationItemLiked,
			Data:       map[string]string{"item_id": item.ID, "item_title": item.Title},
		})
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(item))
}

// Search filters and ranks the active listings for the caller. Matching and
// ordering live in the services package; this handler only parses the query.
func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	filters := models.SearchFilters{
		Category:  q.Get("category"),
		Condition: q.Get("condition"),
	}
	if v := q.Get("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
				"verified": "Must be true or false",
			}))
			return
		}
		filters.Verified = &b
	}
	if v := q.Get("minPrice"); v != "" {
		filters.MinPrice, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("maxPrice"); v != "" {
		filters.MaxPrice, _ = strconv.ParseInt(v, 10, 64)
	}

	items, err := h.items.ListActive(r.Context(), 0)
	if err != nil {
		log.Printf("[ItemHandler] search listing failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	results := services.SearchItems(items, userID, q.Get("q"), filters)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(results))
}
