package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/response"
)

// Recover turns a handler panic into a flat 500 INTERNAL_ERROR body.
// A panic inside the webhook path therefore still makes Paystack retry.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Str("stack", string(debug.Stack())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Panic recovered")

			response.Fail(w, http.StatusInternalServerError, string(apperr.KindInternal), "Erreur interne du serveur")
		}()

		next.ServeHTTP(w, r)
	})
}
