package bridge

import (
	"errors"
	"testing"

	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

func defaultPayloadMap() settings.Payload {
	return settings.Payload{
		ID:        "id",
		Email:     "email",
		Username:  "username",
		FirstName: "firstName",
		LastName:  "lastName",
		Picture:   "picture",
	}
}

func TestExtract_Basic(t *testing.T) {
	id, err := Extract(map[string]any{
		"id":       "abc-123",
		"email":    "jo@example.org",
		"username": "jo",
		"picture":  "https://cdn.example.org/jo.png",
	}, defaultPayloadMap())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ExternalID != "abc-123" || id.Email != "jo@example.org" || id.Username != "jo" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestExtract_NumericID(t *testing.T) {
	// Los ids numéricos llegan como float64 desde JSON.
	id, err := Extract(map[string]any{
		"id":    float64(42),
		"email": "n@example.org",
	}, defaultPayloadMap())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ExternalID != "42" {
		t.Fatalf("expected short numeric form %q, got %q", "42", id.ExternalID)
	}
}

func TestExtract_MissingEmail(t *testing.T) {
	_, err := Extract(map[string]any{"id": "x"}, defaultPayloadMap())
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestExtract_UsernameSynthesis(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"explicit wins", map[string]any{"email": "e@x", "username": "winner", "firstName": "a", "lastName": "b"}, "winner"},
		{"first+last", map[string]any{"email": "e@x", "firstName": "Ada", "lastName": "Lovelace"}, "Ada Lovelace"},
		{"first only", map[string]any{"email": "e@x", "firstName": "Ada"}, "Ada"},
		{"last only", map[string]any{"email": "e@x", "lastName": "Lovelace"}, "Lovelace"},
		{"none", map[string]any{"email": "e@x"}, ""},
	}
	for _, tc := range cases {
		id, err := Extract(tc.payload, defaultPayloadMap())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if id.Username != tc.want {
			t.Fatalf("%s: expected username %q, got %q", tc.name, tc.want, id.Username)
		}
	}
}

func TestExtract_ParentIndirection(t *testing.T) {
	p := defaultPayloadMap()
	p.Parent = "user"

	id, err := Extract(map[string]any{
		"user": map[string]any{
			"id":    "77",
			"email": "deep@example.org",
		},
		// Los campos top-level se ignoran cuando hay parent.
		"email": "shallow@example.org",
	}, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Email != "deep@example.org" {
		t.Fatalf("expected nested email, got %q", id.Email)
	}

	// Parent configurado pero ausente en el payload: inválido, sin fallback.
	_, err = Extract(map[string]any{"email": "shallow@example.org"}, p)
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestIdentity_FullName(t *testing.T) {
	if got := (Identity{FirstName: "Ada", LastName: "Lovelace"}).FullName(); got != "Ada Lovelace" {
		t.Fatalf("got %q", got)
	}
	if got := (Identity{FirstName: "Ada"}).FullName(); got != "Ada" {
		t.Fatalf("got %q", got)
	}
	if got := (Identity{}).FullName(); got != "" {
		t.Fatalf("got %q", got)
	}
}
