package handlers

import (
	"net/http"

	httpx "github.com/dropDatabas3/sessionbridge/internal/http"
	"github.com/dropDatabas3/sessionbridge/internal/observability/logger"
	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

// AdminSettings expone los settings del bridge por el admin API:
// lectura (secret redactado), actualización con reload, y reload manual.
type AdminSettings struct {
	Store  settings.Store
	Loader *settings.Loader
}

type settingsResponse struct {
	Ready    bool              `json:"ready"`
	Settings map[string]string `json:"settings"`
}

// Render responde los settings vigentes. El secret nunca sale en claro.
func (h *AdminSettings) Render(w http.ResponseWriter, r *http.Request) {
	snap := h.Loader.Current()
	m := snap.Map()
	if m[settings.KeySecret] != "" {
		m[settings.KeySecret] = "********"
	}
	httpx.WriteJSON(w, http.StatusOK, settingsResponse{
		Ready:    snap.Ready,
		Settings: m,
	})
}

// Update persiste los pares recibidos en el store y recarga.
func (h *AdminSettings) Update(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if !httpx.ReadJSON(w, r, &values) {
		return
	}
	if len(values) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "missing_fields", "no settings provided")
		return
	}

	ctx := r.Context()
	if err := h.Store.Save(ctx, values); err != nil {
		logger.From(ctx).Error("settings save failed", logger.Err(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not persist settings")
		return
	}
	if err := h.Loader.Reload(ctx); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "settings saved but reload failed")
		return
	}
	h.Render(w, r)
}

// Reload fuerza una recarga desde el store (hot reload).
func (h *AdminSettings) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Loader.Reload(r.Context()); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "reload failed")
		return
	}
	h.Render(w, r)
}
