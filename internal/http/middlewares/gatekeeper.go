package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dropDatabas3/sessionbridge/internal/bridge"
	"github.com/dropDatabas3/sessionbridge/internal/metrics"
	"github.com/dropDatabas3/sessionbridge/internal/observability/logger"
	"github.com/dropDatabas3/sessionbridge/internal/session"
	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

// =================================================================================
// GATEKEEPER
// =================================================================================

// logoutPath es el path fijo que marca intención de logout.
const logoutPath = "/logout"

// Rutas que el gatekeeper nunca intercepta: admin, api, assets, debug y los
// endpoints operativos del propio servicio, más extensiones estáticas.
var (
	excludedRouteRE = regexp.MustCompile(`^/(admin|api|vendor|uploads|language|templates|debug|metrics|healthz|readyz)`)
	excludedExtRE   = regexp.MustCompile(`\.(css|js|tpl|json|map|ico|png|jpg|svg|woff2?)$`)
)

// Resultados finales de la decisión (labels de métrica).
const (
	decisionPassthrough   = "passthrough"
	decisionEstablished   = "established"
	decisionForceLogout   = "force_logout"
	decisionGuestRedirect = "guest_redirect"
)

// TokenProcessor resuelve un token crudo del bridge a un uid local.
// La implementación real es bridge.Processor.
type TokenProcessor interface {
	Process(ctx context.Context, s settings.Settings, rawToken string) (int64, error)
}

type sessKey struct{}

// GetSession extrae la sesión del contexto (nil si el gatekeeper no corrió).
func GetSession(ctx context.Context) *session.Session {
	if v, ok := ctx.Value(sessKey{}).(*session.Session); ok {
		return v
	}
	return nil
}

// Gatekeeper decide, request por request, si deja pasar como guest,
// establece una sesión local desde la cookie del bridge, fuerza un logout o
// redirige al identity provider.
//
// El orden de decisión es deliberado: la intención de logout se chequea
// ANTES de procesar la cookie del bridge. Al revés, una cookie vieja
// re-establecería la sesión que el usuario acaba de pedir cerrar.
type Gatekeeper struct {
	loader    *settings.Loader
	processor TokenProcessor
	sessions  *session.Manager
	baseURL   string
}

func NewGatekeeper(loader *settings.Loader, processor TokenProcessor, sessions *session.Manager, baseURL string) *Gatekeeper {
	return &Gatekeeper{
		loader:    loader,
		processor: processor,
		sessions:  sessions,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func isExcludedPath(p string) bool {
	return excludedRouteRE.MatchString(p) || excludedExtRE.MatchString(p)
}

// Middleware retorna el decorador listo para encadenar.
func (g *Gatekeeper) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.handle(w, r, next)
		})
	}
}

func (g *Gatekeeper) handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	// Snapshot inmutable durante todo el request; un reload concurrente no
	// cambia las reglas a mitad de camino.
	snap := g.loader.Current()
	sess := g.sessions.Load(r)
	ctx := context.WithValue(r.Context(), sessKey{}, sess)
	r = r.WithContext(ctx)
	log := logger.From(ctx).Named("gatekeeper")

	// 1. Bridge deshabilitado, sesión confiada, o path excluido.
	if !snap.Ready || (snap.TrustSession() && sess.HasUID()) || isExcludedPath(r.URL.Path) {
		g.done(decisionPassthrough)
		next.ServeHTTP(w, r)
		return
	}

	// 2. Pedido de logout: se marca para el próximo request y este pasa.
	// El logout en sí lo resuelve el host.
	if r.URL.Path == logoutPath {
		sess.MarkLogout()
		if err := g.sessions.Save(ctx, w, sess); err != nil {
			log.Warn("could not persist logout marker", logger.Err(err))
		}
		g.done(decisionPassthrough)
		next.ServeHTTP(w, r)
		return
	}

	// 3. Marcador de logout pendiente: consumirlo antes de mirar la cookie
	// del bridge.
	if sess.Logout {
		sess.ClearLogout()
		if err := g.sessions.Save(ctx, w, sess); err != nil {
			log.Warn("could not clear logout marker", logger.Err(err))
		}
		g.clearBridgeCookie(w, snap.Settings)
		if snap.LogoutEndpoint != "" {
			g.done(decisionGuestRedirect)
			http.Redirect(w, r, snap.LogoutEndpoint, http.StatusFound)
			return
		}
		g.done(decisionPassthrough)
		next.ServeHTTP(w, r)
		return
	}

	// 4. Cookie del bridge presente: intentar establecer sesión local.
	if c, err := r.Cookie(snap.CookieName); err == nil && c.Value != "" {
		uid, err := g.processor.Process(ctx, snap.Settings, c.Value)
		if err != nil {
			switch {
			case errors.Is(err, bridge.ErrPayloadInvalid):
				log.Warn("bridge payload was invalid and could not be processed", logger.Err(err))
			default:
				log.Warn("error encountered while processing bridge token", logger.Err(err))
			}
			g.guest(w, r, snap, next)
			return
		}

		log.Info("processing login", logger.UID(uid))
		sess.SetUID(uid)
		if err := g.sessions.Save(ctx, w, sess); err != nil {
			log.Warn("could not persist session", logger.Err(err), logger.UID(uid))
			g.guest(w, r, snap, next)
			return
		}
		g.done(decisionEstablished)
		next.ServeHTTP(w, r)
		return
	}

	// 5. Sesión local sin cookie del bridge: el provider ya no respalda esta
	// sesión, cerrarla.
	if sess.HasUID() {
		if err := g.sessions.Destroy(ctx, w, sess); err != nil {
			log.Warn("could not destroy session", logger.Err(err))
		}
		g.clearBridgeCookie(w, snap.Settings)
		g.done(decisionForceLogout)
		g.guest(w, r, snap, next)
		return
	}

	// 6. Guest.
	g.guest(w, r, snap, next)
}

// guest aplica el guest handling: redirect configurado o passthrough.
func (g *Gatekeeper) guest(w http.ResponseWriter, r *http.Request, snap settings.Snapshot, next http.Handler) {
	if snap.GuestRedirect != "" {
		returnPath := url.QueryEscape(g.baseURL + r.URL.Path)
		target := strings.ReplaceAll(snap.GuestRedirect, "%1", returnPath)
		g.done(decisionGuestRedirect)
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	g.done(decisionPassthrough)
	next.ServeHTTP(w, r)
}

// clearBridgeCookie borra la cookie del bridge. Solo aplica si hay dominio
// configurado (sin dominio no podemos pisar la cookie del provider).
func (g *Gatekeeper) clearBridgeCookie(w http.ResponseWriter, s settings.Settings) {
	if s.CookieDomain == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:    s.CookieName,
		Value:   "",
		Path:    "/",
		Domain:  s.CookieDomain,
		Expires: time.Unix(0, 0).UTC(),
		MaxAge:  -1,
	})
}

func (g *Gatekeeper) done(decision string) {
	metrics.DecisionsTotal.WithLabelValues(decision).Inc()
}
