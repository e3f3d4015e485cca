package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

type DeliveryHandler struct {
	deliveries *services.DeliveryManager
}

func NewDeliveryHandler(deliveries *services.DeliveryManager) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries}
}

func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.CreateDeliveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	delivery, err := h.deliveries.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case err == services.ErrSwapNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Swap not found"))
		case err == services.ErrNotSwapParty:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You are not a party to this swap"))
		case err == services.ErrSwapNotAccepted:
			writeJSON(w, http.StatusConflict, models.NewErrorResponse(models.CodeConflict, "Delivery requires an accepted swap"))
		case errors.Is(err, services.ErrUpstream):
			log.Printf("[DeliveryHandler] courier failure: %v", err)
			writeJSON(w, http.StatusBadGateway, models.NewErrorResponse(models.CodeUpstreamFailure, "Courier service unavailable"))
		default:
			log.Printf("[DeliveryHandler] create failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(delivery))
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	deliveryID := chi.URLParam(r, "deliveryID")

	delivery, err := h.deliveries.Get(r.Context(), userID, deliveryID)
	if err != nil {
		switch err {
		case services.ErrDeliveryNotFound:
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Delivery not found"))
		case services.ErrNotSwapParty:
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You did not book this delivery"))
		default:
			log.Printf("[DeliveryHandler] get failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(delivery))
}
