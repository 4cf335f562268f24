// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "github.com/dropDatabas3/sessionbridge/internal/http"
	"github.com/dropDatabas3/sessionbridge/internal/http/handlers"
	mw "github.com/dropDatabas3/sessionbridge/internal/http/middlewares"
)

// Deps contiene todo lo que el router necesita para armar el handler final.
// Se llama desde el wiring principal en cmd/.
type Deps struct {
	Gatekeeper *mw.Gatekeeper

	AdminSettings *handlers.AdminSettings
	DebugSession  *handlers.DebugSession

	// Metrics es el handler de /metrics ya registrado contra el registry.
	Metrics http.Handler

	// ReadyDeps son los backends chequeados por /readyz, por nombre.
	ReadyDeps map[string]handlers.Pinger

	// AdminAPIKey protege las rutas de administración. Vacío = rutas admin
	// deshabilitadas (404).
	AdminAPIKey string

	// EnableDebug habilita GET /debug/session. Nunca en producción.
	EnableDebug bool
}

// New construye el handler raíz: rutas operativas y de administración por un
// lado, y el gatekeeper interceptando todo lo demás por el otro.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// ─── Operativas ───
	r.Get("/healthz", handlers.Healthz)
	r.Get("/readyz", handlers.Readyz(deps.ReadyDeps))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// ─── Administración de settings ───
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAdminKey(deps.AdminAPIKey))

		r.Get("/admin/plugins/session-sharing", deps.AdminSettings.Render)
		r.Get("/api/admin/plugins/session-sharing", deps.AdminSettings.Render)
		r.Put("/api/admin/plugins/session-sharing", deps.AdminSettings.Update)
		r.Post("/api/admin/plugins/session-sharing/reload", deps.AdminSettings.Reload)
	})

	// ─── Debug ───
	if deps.EnableDebug && deps.DebugSession != nil {
		r.Get("/debug/session", deps.DebugSession.Generate)
	}

	// Cualquier otro path es una "página" del host: pasa por el gatekeeper y
	// termina en whoami, que refleja el estado de sesión resultante.
	r.NotFound(handlers.Whoami)
	r.Get("/", handlers.Whoami)
	r.Get("/logout", handlers.Whoami)

	chain := []mw.Middleware{
		mw.WithRequestID(),
		mw.WithLogging(),
		httpx.WithMetrics,
	}
	if deps.Gatekeeper != nil {
		chain = append(chain, deps.Gatekeeper.Middleware())
	}
	return mw.Chain(r, chain...)
}
