package handlers

import (
	"net/http"

	httpx "github.com/dropDatabas3/sessionbridge/internal/http"
	mw "github.com/dropDatabas3/sessionbridge/internal/http/middlewares"
)

// Whoami responde el estado de sesión del request. Es la "página" default
// del servicio: cualquier path no operativo cae acá después del gatekeeper.
func Whoami(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r.Context())
	if sess == nil || !sess.HasUID() {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"guest": true})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"guest": false,
		"uid":   sess.UID,
	})
}
