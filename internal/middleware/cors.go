package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSHandler allows the web app to call the API from the browser.
// Webhooks are server-to-server and unaffected.
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "apikey", "x-client-info"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
	if wildcard {
		// credentials cannot be combined with a wildcard origin
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.Handler(opts)
}
