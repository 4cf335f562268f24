package bridge

import (
	"fmt"
	"strings"

	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

// Identity es la tupla normalizada de claims remotos. Transient: se crea y
// descarta dentro del procesamiento de un request.
type Identity struct {
	ExternalID string
	Email      string
	Username   string
	FirstName  string
	LastName   string
	Picture    string
}

// FullName arma el nombre completo "first last", trimmed.
func (id Identity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(id.FirstName) + " " + strings.TrimSpace(id.LastName))
}

// Extract resuelve cada campo del payload verificado según el mapeo tipado.
// Si hay parent configurado, todos los campos se leen a través de él.
// El email es el campo ancla: si resuelve vacío, ErrPayloadInvalid.
func Extract(payload map[string]any, p settings.Payload) (Identity, error) {
	src := payload
	if p.Parent != "" {
		nested, ok := payload[p.Parent].(map[string]any)
		if !ok {
			return Identity{}, fmt.Errorf("%w: parent claim %q missing", ErrPayloadInvalid, p.Parent)
		}
		src = nested
	}

	id := Identity{
		ExternalID: claimString(src, p.ID),
		Email:      claimString(src, p.Email),
		Username:   claimString(src, p.Username),
		FirstName:  claimString(src, p.FirstName),
		LastName:   claimString(src, p.LastName),
		Picture:    claimString(src, p.Picture),
	}

	if id.Email == "" {
		return Identity{}, fmt.Errorf("%w: email claim missing", ErrPayloadInvalid)
	}

	// Síntesis del username: explícito > first+last > first > last.
	if id.Username == "" {
		switch {
		case id.FirstName != "" && id.LastName != "":
			id.Username = id.FirstName + " " + id.LastName
		case id.FirstName != "":
			id.Username = id.FirstName
		case id.LastName != "":
			id.Username = id.LastName
		}
	}
	id.Username = strings.TrimSpace(id.Username)

	return id, nil
}

// claimString resuelve un claim como string. Los ids numéricos llegan como
// float64 desde JSON; fmt con %v da la representación corta ("42", no "42.0").
func claimString(src map[string]any, key string) string {
	if key == "" {
		return ""
	}
	v, ok := src[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
