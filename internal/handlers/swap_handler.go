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

// SwapHandler drives the proposal lifecycle and the side effects hanging off
// it: the offer counter on proposal, payment propagation on accept, and a
// notification on every transition. Side effects other than the payment
// update are best-effort.
type SwapHandler struct {
	swaps    services.SwapService
	items    services.ItemService
	payments *services.PaymentProcessor
	notifier *services.Notifier
}

func NewSwapHandler(swaps services.SwapService, items services.ItemService, payments *services.PaymentProcessor, notifier *services.Notifier) *SwapHandler {
	return &SwapHandler{swaps: swaps, items: items, payments: payments, notifier: notifier}
}

func (h *SwapHandler) Propose(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.ProposeSwapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	swap, err := h.swaps.Propose(r.Context(), userID, &req)
	if err != nil {
		if err == services.ErrItemNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Item not found"))
			return
		}
		log.Printf("[SwapHandler] propose failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	if err := h.items.RecordOffer(r.Context(), swap.ItemRequestedID); err != nil {
		log.Printf("[SwapHandler] offer count failed item=%s: %v", swap.ItemRequestedID, err)
	}

	h.notifier.Send(r.Context(), models.NotificationEvent{
		FromUserID: userID,
		ToUserID:   swap.RequestedFromUserID,
		Type:       models.NotificationSwapProposed,
		Data:       h.swapEventData(r, swap),
	})

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(swap))
}

// Accept flips the swap and completes any pending payment linked to it. The
// payment update is idempotent, so a retried accept that fails later in the
// chain does not double-settle.
func (h *SwapHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	swapID := chi.URLParam(r, "swapID")

	swap, err := h.swaps.Accept(r.Context(), userID, swapID)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	if err := h.payments.CompleteForSwap(r.Context(), swap.ID); err != nil {
		log.Printf("[SwapHandler] payment propagation failed swap=%s: %v", swap.ID, err)
	}

	data := h.swapEventData(r, swap)
	data["amount"] = strconv.FormatInt(swap.NetAmount, 10)
	h.notifier.Send(r.Context(), models.NotificationEvent{
		FromUserID: userID,
		ToUserID:   swap.OfferedByUserID,
		Type:       models.NotificationSwapAccepted,
		Data:       data,
	})

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(swap))
}

func (h *SwapHandler) Decline(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	swapID := chi.URLParam(r, "swapID")

	swap, err := h.swaps.Decline(r.Context(), userID, swapID)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}

	h.notifier.Send(r.Context(), models.NotificationEvent{
		FromUserID: userID,
		ToUserID:   swap.OfferedByUserID,
		Type:       models.NotificationSwapDeclined,
		Data:       h.swapEventData(r, swap),
	})

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(swap))
}

func (h *SwapHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	swapID := chi.URLParam(r, "swapID")

	swap, err := h.swaps.GetByID(r.Context(), swapID)
	if err != nil {
		if err == services.ErrSwapNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Swap not found"))
			return
		}
		log.Printf("[SwapHandler] get failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	if swap.OfferedByUserID != userID && swap.RequestedFromUserID != userID {
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "You are not a party to this swap"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(swap))
}

func (h *SwapHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	swaps, err := h.swaps.ListForUser(r.Context(), userID)
	if err != nil {
		log.Printf("[SwapHandler] list failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(swaps))
}

func (h *SwapHandler) writeTransitionError(w http.ResponseWriter, err error) {
	switch err {
	case services.ErrSwapNotFound:
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "Swap not found"))
	case services.ErrNotSwapRecipient:
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodeForbidden, "Only the requested item's owner may act on this swap"))
	case services.ErrSwapClosed:
		writeJSON(w, http.StatusConflict, models.NewErrorResponse(models.CodeConflict, "Swap already accepted or declined"))
	default:
		log.Printf("[SwapHandler] transition failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
	}
}

func (h *SwapHandler) swapEventData(r *http.Request, swap *models.Swap) map[string]string {
	data := map[string]string{"swap_id": swap.ID}
	if item, err := h.items.GetByID(r.Context(), swap.ItemRequestedID); err == nil {
		data["item_title"] = item.Title
	}
	return data
}
