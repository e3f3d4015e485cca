package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

// PaymentHandler drives the initialize/verify flow. Gateway failures here
// are critical and surface as 502, unlike notification side channels.
type PaymentHandler struct {
	payments *services.PaymentProcessor
	swaps    services.SwapService
	notifier *services.Notifier
}

func NewPaymentHandler(payments *services.PaymentProcessor, swaps services.SwapService, notifier *services.Notifier) *PaymentHandler {
	return &PaymentHandler{payments: payments, swaps: swaps, notifier: notifier}
}

func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.InitializePaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	swap, err := h.swaps.GetByID(r.Context(), req.SwapID)
	if err != nil {
		if err == services.ErrSwapNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Swap not found"))
			return
		}
		log.Printf("[PaymentHandler] swap lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}
	if swap.OfferedByUserID != userID && swap.RequestedFromUserID != userID {
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You are not a party to this swap"))
		return
	}

	payment, err := h.payments.Initialize(r.Context(), userID, &req)
	if err != nil {
		h.writePaymentError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(payment))
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.VerifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	payment, err := h.payments.Verify(r.Context(), userID, &req)
	if err != nil {
		h.writePaymentError(w, err)
		return
	}

	if payment.Status == models.PaymentStatusCompleted {
		h.notifyCounterparty(r, userID, payment)
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(payment))
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	paymentID := chi.URLParam(r, "paymentID")

	payment, err := h.payments.Get(r.Context(), userID, paymentID)
	if err != nil {
		h.writePaymentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(payment))
}

func (h *PaymentHandler) writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case err == services.ErrPaymentNotFound:
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Payment not found"))
	case err == services.ErrNotPaymentOwner:
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You do not own this payment"))
	case err == services.ErrPaymentClosed:
		writeJSON(w, http.StatusConflict, models.NewErrorResponse(models.CodeConflict, "Payment already completed or failed"))
	case err == services.ErrUnknownGateway:
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
			"gateway": "Gateway must be one of: razorpay, stripe",
		}))
	case errors.Is(err, services.ErrUpstream):
		log.Printf("[PaymentHandler] gateway failure: %v", err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse(models.CodeUpstreamFailure, "Payment gateway unavailable"))
	default:
		log.Printf("[PaymentHandler] payment operation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
	}
}

func (h *PaymentHandler) notifyCounterparty(r *http.Request, userID string, payment *models.Payment) {
	swap, err := h.swaps.GetByID(r.Context(), payment.SwapID)
	if err != nil {
		log.Printf("[PaymentHandler] swap lookup for notification failed: %v", err)
		return
	}

	toUserID := swap.RequestedFromUserID
	if toUserID == userID {
		toUserID = swap.OfferedByUserID
	}

	h.notifier.Send(r.Context(), models.NotificationEvent{
		FromUserID: userID,
		ToUserID:   toUserID,
		Type:       models.NotificationPaymentDone,
		Data: map[string]string{
			"swap_id":    swap.ID,
			"payment_id": payment.ID,
			"amount":     strconv.FormatInt(payment.Amount, 10) + " " + payment.Currency,
		},
	})
}
