package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/sessionbridge/internal/cache"
	"github.com/dropDatabas3/sessionbridge/internal/http/handlers"
	mw "github.com/dropDatabas3/sessionbridge/internal/http/middlewares"
	"github.com/dropDatabas3/sessionbridge/internal/session"
	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

type noopProcessor struct{}

func (noopProcessor) Process(context.Context, settings.Settings, string) (int64, error) {
	return 0, nil
}

func newTestHandler(t *testing.T, adminKey string, debug bool) http.Handler {
	t.Helper()
	store := settings.NewMemStore()
	require.NoError(t, store.Save(context.Background(), map[string]string{settings.KeySecret: "s3cret"}))
	loader := settings.NewLoader(store, settings.Defaults())
	require.NoError(t, loader.Reload(context.Background()))

	sessions := session.NewManager(cache.NewMemory("t", time.Minute), session.Config{})
	gk := mw.NewGatekeeper(loader, noopProcessor{}, sessions, "http://localhost")

	return New(Deps{
		Gatekeeper:    gk,
		AdminSettings: &handlers.AdminSettings{Store: store, Loader: loader},
		DebugSession:  &handlers.DebugSession{Loader: loader},
		ReadyDeps:     map[string]handlers.Pinger{},
		AdminAPIKey:   adminKey,
		EnableDebug:   debug,
	})
}

func TestRouter_Healthz(t *testing.T) {
	h := newTestHandler(t, "", false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminRoutesRequireKey(t *testing.T) {
	h := newTestHandler(t, "top-secret", false)

	// Sin header: 401.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/plugins/session-sharing", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Con header correcto: 200.
	r := httptest.NewRequest(http.MethodGet, "/api/admin/plugins/session-sharing", nil)
	r.Header.Set("X-Admin-API-Key", "top-secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminDisabledWithoutKey(t *testing.T) {
	h := newTestHandler(t, "", false)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/plugins/session-sharing", nil)
	r.Header.Set("X-Admin-API-Key", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DebugRouteGated(t *testing.T) {
	// Deshabilitado: cae en whoami (guest) via NotFound.
	h := newTestHandler(t, "", false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "guest")

	// Habilitado: emite la cookie del bridge.
	h = newTestHandler(t, "", true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			found = true
		}
	}
	require.True(t, found, "expected bridge cookie from /debug/session")
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	h := newTestHandler(t, "", false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
