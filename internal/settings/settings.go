// Package settings contiene la configuración caliente del bridge: el mapeo
// de claims, endpoints remotos y la política de confianza. A diferencia de
// internal/config (estática, de arranque), estos valores viven en el
// settings store y se pueden recargar sin reiniciar el servicio.
package settings

import "strings"

// Claves del settings store. Mismos nombres que expone el admin API.
const (
	KeyName             = "name"
	KeyCookieName       = "cookieName"
	KeyCookieDomain     = "cookieDomain"
	KeySecret           = "secret"
	KeyBehaviour        = "behaviour"
	KeyPayloadID        = "payload:id"
	KeyPayloadEmail     = "payload:email"
	KeyPayloadUsername  = "payload:username"
	KeyPayloadFirstName = "payload:firstName"
	KeyPayloadLastName  = "payload:lastName"
	KeyPayloadPicture   = "payload:picture"
	KeyPayloadParent    = "payload:parent"
	KeyExchangeEndpoint = "exchangeTokenEndpoint"
	KeyLogoutEndpoint   = "logoutEndpoint"
	KeyGuestRedirect    = "guestRedirect"
)

// BehaviourTrust acepta una sesión local existente sin re-verificar contra el
// proveedor. Cualquier otro valor fuerza re-verificación en cada request.
const BehaviourTrust = "trust"

// Payload es el mapeo tipado de campos lógicos a claims del payload.
// Se valida al cargar, no por campo en cada request.
type Payload struct {
	ID        string
	Email     string
	Username  string
	FirstName string
	LastName  string
	Picture   string
	// Parent, si no está vacío, indica que todos los campos se leen a través
	// de ese objeto anidado. O todos o ninguno.
	Parent string
}

// Settings agrupa la configuración caliente del bridge.
type Settings struct {
	// Name es el namespace del índice external-id → uid ("<name>:uid").
	Name string
	// CookieName es el nombre de la cookie que trae el token opaco.
	CookieName   string
	CookieDomain string
	// Secret es el secreto compartido para verificar la assertion firmada.
	Secret    string
	Behaviour string
	Payload   Payload
	// ExchangeTokenEndpoint recibe el POST de intercambio de token.
	ExchangeTokenEndpoint string
	// LogoutEndpoint destino del redirect tras un logout local.
	LogoutEndpoint string
	// GuestRedirect destino para guests; %1 se sustituye por el return-path
	// URL-encoded.
	GuestRedirect string
}

// Defaults retorna los settings por defecto del bridge.
func Defaults() Settings {
	return Settings{
		Name:       "appId",
		CookieName: "token",
		Behaviour:  BehaviourTrust,
		Payload: Payload{
			ID:      "id",
			Email:   "email",
			Picture: "picture",
		},
	}
}

// Merge aplica los valores no vacíos de m sobre s y retorna el resultado.
// s no se modifica: los snapshots son inmutables (ver Loader).
func (s Settings) Merge(m map[string]string) Settings {
	set := func(dst *string, key string) {
		if v, ok := m[key]; ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&s.Name, KeyName)
	set(&s.CookieName, KeyCookieName)
	set(&s.CookieDomain, KeyCookieDomain)
	set(&s.Secret, KeySecret)
	set(&s.Behaviour, KeyBehaviour)
	set(&s.Payload.ID, KeyPayloadID)
	set(&s.Payload.Email, KeyPayloadEmail)
	set(&s.Payload.Username, KeyPayloadUsername)
	set(&s.Payload.FirstName, KeyPayloadFirstName)
	set(&s.Payload.LastName, KeyPayloadLastName)
	set(&s.Payload.Picture, KeyPayloadPicture)
	set(&s.Payload.Parent, KeyPayloadParent)
	set(&s.ExchangeTokenEndpoint, KeyExchangeEndpoint)
	set(&s.LogoutEndpoint, KeyLogoutEndpoint)
	set(&s.GuestRedirect, KeyGuestRedirect)
	return s
}

// Map retorna los settings como mapa plano (para el admin API y el store).
// El secret se incluye: el caller decide si redactarlo.
func (s Settings) Map() map[string]string {
	return map[string]string{
		KeyName:             s.Name,
		KeyCookieName:       s.CookieName,
		KeyCookieDomain:     s.CookieDomain,
		KeySecret:           s.Secret,
		KeyBehaviour:        s.Behaviour,
		KeyPayloadID:        s.Payload.ID,
		KeyPayloadEmail:     s.Payload.Email,
		KeyPayloadUsername:  s.Payload.Username,
		KeyPayloadFirstName: s.Payload.FirstName,
		KeyPayloadLastName:  s.Payload.LastName,
		KeyPayloadPicture:   s.Payload.Picture,
		KeyPayloadParent:    s.Payload.Parent,
		KeyExchangeEndpoint: s.ExchangeTokenEndpoint,
		KeyLogoutEndpoint:   s.LogoutEndpoint,
		KeyGuestRedirect:    s.GuestRedirect,
	}
}

// TrustSession indica si una sesión local existente alcanza sin re-verificar.
func (s Settings) TrustSession() bool {
	return s.Behaviour == BehaviourTrust
}
