package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swapin/backend/internal/middleware"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

// AuthHandler backs the local JWT development flow and profile endpoints.
// When Firebase auth is wired, register/login are typically unused by the
// mobile client but remain available for tooling.
type AuthHandler struct {
	users         services.UserService
	jwtSecret     []byte
	jwtExpiration time.Duration
}

func NewAuthHandler(users services.UserService, jwtSecret string, jwtExpiration time.Duration) *AuthHandler {
	return &AuthHandler{
		users:         users,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		if err == services.ErrEmailExists {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse(models.CodeConflict, "Email already registered"))
			return
		}
		log.Printf("[AuthHandler] register failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		log.Printf("[AuthHandler] token issue failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(models.AuthResponse{Token: token, User: *user}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	user, err := h.users.Login(r.Context(), &req)
	if err != nil {
		if err == services.ErrUserNotFound || err == services.ErrInvalidPassword {
			writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeInvalidToken, "Invalid email or password"))
			return
		}
		log.Printf("[AuthHandler] login failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		log.Printf("[AuthHandler] token issue failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AuthResponse{Token: token, User: *user}))
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if err == services.ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "User not found"))
			return
		}
		log.Printf("[AuthHandler] profile lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(user))
}

func (h *AuthHandler) UpdateDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.UpdateDeviceTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DeviceToken == "" {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
			"deviceToken": "Device token is required",
		}))
		return
	}

	if err := h.users.UpdateDeviceToken(r.Context(), userID, req.DeviceToken); err != nil {
		if err == services.ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse(models.CodeNotFound, "User not found"))
			return
		}
		log.Printf("[AuthHandler] device token update failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"status": "updated"}))
}

func (h *AuthHandler) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtExpiration)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}
