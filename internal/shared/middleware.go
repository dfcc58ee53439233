package shared

import (
	"net/http"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// RequireUser rejects requests without an authenticated session before any
// handler or write can run.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserID(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
