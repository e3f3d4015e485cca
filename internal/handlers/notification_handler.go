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

type NotificationHandler struct {
	store services.NotificationStore
}

func NewNotificationHandler(store services.NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.store.ListForUser(r.Context(), userID, limit)
	if err != nil {
		log.Printf("[NotificationHandler] list failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(notifications))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	notificationID := chi.URLParam(r, "notificationID")

	if err := h.store.MarkRead(r.Context(), userID, notificationID); err != nil {
		if err == services.ErrNotificationNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Notification not found"))
			return
		}
		log.Printf("[NotificationHandler] mark read failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "read"}))
}
