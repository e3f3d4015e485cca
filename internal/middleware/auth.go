package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"github.com/swapin/backend/internal/models"
)

type contextKey string

const UserIDKey contextKey = "userID"

// GetUserID returns the authenticated user ID placed in the request context
// by the Auth middleware.
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}

// NewFirebaseAuthClient builds a Firebase auth client from inline service
// account JSON. Returns nil when no credentials are configured so the server
// can fall back to local JWT verification.
func NewFirebaseAuthClient(ctx context.Context, projectID, credentialsJSON string) (*fbauth.Client, error) {
	if credentialsJSON == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: projectID},
		option.WithCredentialsJSON([]byte(credentialsJSON)),
	)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// Authenticator verifies bearer tokens. Firebase ID tokens are preferred;
// locally issued HS256 JWTs are accepted when no Firebase client is wired,
// which keeps development and tests free of external credentials.
type Authenticator struct {
	Firebase  *fbauth.Client
	JWTSecret []byte
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respond(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeAuthRequired, "Authorization header required"))
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			respond(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeAuthRequired, "Bearer token required"))
			return
		}

		userID, err := a.verify(r.Context(), token)
		if err != nil {
			log.Printf("[Auth] token rejected: %v", err)
			respond(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeInvalidToken, "Invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) verify(ctx context.Context, token string) (string, error) {
	if a.Firebase != nil {
		decoded, err := a.Firebase.VerifyIDToken(ctx, token)
		if err != nil {
			return "", err
		}
		return decoded.UID, nil
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.JWTSecret, nil
	})
	if err != nil {
		return "", err
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return sub, nil
}

func respond(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Middleware] failed to encode response: %v", err)
	}
}
