package middlewares

import (
	"crypto/subtle"
	"net/http"

	httpx "github.com/dropDatabas3/sessionbridge/internal/http"
)

// RequireAdminKey valida el header X-Admin-API-Key contra la key
// configurada. Con key vacía las rutas admin quedan deshabilitadas.
func RequireAdminKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				httpx.WriteError(w, http.StatusNotFound, "not_found", "admin api disabled")
				return
			}
			got := r.Header.Get("X-Admin-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid admin api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
