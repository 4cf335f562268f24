package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/sessionbridge/internal/cache"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(cache.NewMemory("t", time.Minute), Config{CookieName: "sid", TTL: time.Hour})
}

func TestLoad_NoCookieReturnsFreshSession(t *testing.T) {
	m := newTestManager(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	s := m.Load(r)
	if s.HasUID() || s.Logout {
		t.Fatalf("expected empty fresh session, got %+v", s)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.SetUID(42)

	rec := httptest.NewRecorder()
	if err := m.Save(ctx, rec, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].Value == "" {
		t.Fatalf("expected sid cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be httpOnly")
	}

	// Siguiente request con la cookie: misma sesión.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	s2 := m.Load(r2)
	if s2.UID != 42 {
		t.Fatalf("expected uid 42, got %d", s2.UID)
	}
}

func TestSave_CleanSessionIsNoop(t *testing.T) {
	m := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	if err := m.Save(context.Background(), rec, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("clean session must not emit a cookie")
	}
}

func TestLogoutMarker_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.SetUID(7)
	s.MarkLogout()

	rec := httptest.NewRecorder()
	if err := m.Save(ctx, rec, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(rec.Result().Cookies()[0])
	s2 := m.Load(r2)
	if !s2.Logout {
		t.Fatal("expected logout marker to survive the round trip")
	}

	s2.ClearLogout()
	rec2 := httptest.NewRecorder()
	if err := m.Save(ctx, rec2, s2); err != nil {
		t.Fatalf("save after clear: %v", err)
	}

	r3 := httptest.NewRequest(http.MethodGet, "/", nil)
	r3.AddCookie(rec.Result().Cookies()[0])
	if s3 := m.Load(r3); s3.Logout {
		t.Fatal("logout marker must not survive after clear")
	}
}

func TestDestroy_RemovesRecordAndExpiresCookie(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.SetUID(9)
	rec := httptest.NewRecorder()
	_ = m.Save(ctx, rec, s)
	sid := rec.Result().Cookies()[0]

	rec2 := httptest.NewRecorder()
	if err := m.Destroy(ctx, rec2, s); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	del := rec2.Result().Cookies()
	if len(del) != 1 || del[0].MaxAge != -1 {
		t.Fatalf("expected deletion cookie, got %+v", del)
	}

	// El registro ya no existe: la cookie vieja carga una sesión vacía.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(sid)
	if s2 := m.Load(r2); s2.HasUID() {
		t.Fatalf("expected empty session after destroy, got %+v", s2)
	}
}
