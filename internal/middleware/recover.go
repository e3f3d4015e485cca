package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/swapin/backend/internal/models"
)

// Recoverer converts panics into the standard internal-error envelope instead
// of letting chi's default recoverer write a bare 500.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("[Recoverer] panic on %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				respond(w, http.StatusInternalServerError, models.NewInternalErrorResponse())
			}
		}()
		next.ServeHTTP(w, r)
	})
}
