// Package session es el transporte de sesión local: una cookie `sid` opaca
// apuntando a un registro en el cache (memory o redis). El core del bridge
// solo setea/limpia el uid y el marcador de logout.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/sessionbridge/internal/cache"
)

const keyPrefix = "sess"

// Session es el registro de sesión local.
type Session struct {
	ID string `json:"-"`
	// UID > 0 indica sesión autenticada.
	UID int64 `json:"uid"`
	// Logout marca que el próximo request debe cerrar la sesión.
	Logout bool `json:"logout,omitempty"`

	// dirty indica cambios sin persistir.
	dirty bool
	// fresh indica que la sesión todavía no existe en el store.
	fresh bool
}

// HasUID indica si la sesión carga un uid positivo.
func (s *Session) HasUID() bool { return s != nil && s.UID > 0 }

// SetUID asigna el uid local a la sesión.
func (s *Session) SetUID(uid int64) {
	if s.UID != uid {
		s.UID = uid
		s.dirty = true
	}
}

// MarkLogout deja el marcador de logout para el próximo request.
func (s *Session) MarkLogout() {
	if !s.Logout {
		s.Logout = true
		s.dirty = true
	}
}

// ClearLogout limpia el marcador.
func (s *Session) ClearLogout() {
	if s.Logout {
		s.Logout = false
		s.dirty = true
	}
}

// Config del manager de sesiones.
type Config struct {
	CookieName string
	Domain     string
	Secure     bool
	TTL        time.Duration
}

// Manager carga y persiste sesiones contra el cache.
type Manager struct {
	store cache.Client
	cfg   Config
}

func NewManager(store cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &Manager{store: store, cfg: cfg}
}

func storeKey(id string) string { return keyPrefix + ":" + id }

// Load lee la sesión del request. Sin cookie, registro ausente o corrupto
// retorna una sesión fresca vacía; nunca falla el request por esto.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return &Session{fresh: true}
	}

	raw, err := m.store.Get(r.Context(), storeKey(c.Value))
	if err != nil {
		return &Session{fresh: true}
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return &Session{fresh: true}
	}
	s.ID = c.Value
	return &s
}

// Save persiste la sesión si tiene cambios. Para sesiones frescas asigna un
// ID nuevo y setea la cookie en la respuesta.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.dirty {
		return nil
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := m.store.Set(ctx, storeKey(s.ID), string(raw), m.cfg.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	if s.fresh {
		http.SetCookie(w, m.buildCookie(s.ID, m.cfg.TTL))
		s.fresh = false
	}
	s.dirty = false
	return nil
}

// Destroy borra el registro y expira la cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID != "" {
		if err := m.store.Delete(ctx, storeKey(s.ID)); err != nil {
			return fmt.Errorf("session: destroy: %w", err)
		}
	}
	http.SetCookie(w, m.buildDeletionCookie())
	s.UID = 0
	s.Logout = false
	s.dirty = false
	return nil
}

func (m *Manager) buildCookie(value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().UTC().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if m.cfg.Domain != "" {
		c.Domain = m.cfg.Domain
	}
	return c
}

func (m *Manager) buildDeletionCookie() *http.Cookie {
	c := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if m.cfg.Domain != "" {
		c.Domain = m.cfg.Domain
	}
	return c
}
