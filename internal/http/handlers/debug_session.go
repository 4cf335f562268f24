package handlers

import (
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	httpx "github.com/dropDatabas3/sessionbridge/internal/http"
	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

// debugCookieTTL: 21 días, igual que la cookie que emite el provider real.
const debugCookieTTL = 21 * 24 * time.Hour

// DebugSession emite una assertion de prueba auto-firmada con el secret
// configurado y la deja como cookie del bridge. Solo se registra fuera de
// prod.
type DebugSession struct {
	Loader *settings.Loader
}

func (h *DebugSession) Generate(w http.ResponseWriter, r *http.Request) {
	snap := h.Loader.Current()
	if !snap.Ready {
		httpx.WriteError(w, http.StatusServiceUnavailable, "not_ready", "bridge disabled (no secret configured)")
		return
	}

	claims := jwtv5.MapClaims{}
	if k := snap.Payload.ID; k != "" {
		claims[k] = 1
	}
	if k := snap.Payload.Username; k != "" {
		claims[k] = "testUser"
	}
	if k := snap.Payload.Email; k != "" {
		claims[k] = "testUser@example.org"
	}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(snap.Secret))
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not sign test assertion")
		return
	}

	c := &http.Cookie{
		Name:     snap.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(debugCookieTTL.Seconds()),
		Expires:  time.Now().UTC().Add(debugCookieTTL),
		HttpOnly: true,
	}
	if snap.CookieDomain != "" {
		c.Domain = snap.CookieDomain
	}
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusOK)
}
