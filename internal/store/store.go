// Package store contiene la persistencia del bridge: perfiles de usuario
// locales (postgres) y los dos índices de identidad (redis).
//
// Los índices son el único estado durable que el core lee y escribe
// directamente:
//
//   - "<name>:uid"  hash: external id → uid local
//   - "email:uid"   sorted set: member = email, score = uid
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound indica que el uid no existe en el user store.
var ErrUserNotFound = errors.New("store: user not found")

// UserProfile es el registro local de un usuario.
type UserProfile struct {
	UID       int64
	Username  string
	Email     string
	FullName  string
	Picture   string
	CreatedAt time.Time
}

// NewUser son los campos para crear una cuenta local nueva.
type NewUser struct {
	Username string
	Email    string
	Picture  string
	FullName string
}

// UserStore persiste perfiles locales. La reconciliación nunca borra cuentas.
type UserStore interface {
	// Create crea la cuenta y retorna el uid asignado. También registra el
	// email en el índice email→uid.
	Create(ctx context.Context, u NewUser) (int64, error)
	// GetByUID retorna el perfil o ErrUserNotFound.
	GetByUID(ctx context.Context, uid int64) (UserProfile, error)
	// UpdateUsername sincroniza el username local (one-way, remoto manda).
	UpdateUsername(ctx context.Context, uid int64, username string) error
	Ping(ctx context.Context) error
}

// IndexStore son los dos índices de identidad. Las dos lecturas son
// independientes: no hay garantía de consistencia cruzada entre ambas.
type IndexStore interface {
	// UIDByExternalID resuelve external id → uid bajo el namespace dado.
	// ok=false si no hay mapeo o si el valor guardado no parsea a uid válido.
	UIDByExternalID(ctx context.Context, namespace, externalID string) (uid int64, ok bool, err error)
	// UIDByEmail resuelve email → uid (score del sorted set).
	UIDByEmail(ctx context.Context, email string) (uid int64, ok bool, err error)
	// LinkExternalID escribe el vínculo external id → uid.
	LinkExternalID(ctx context.Context, namespace, externalID string, uid int64) error
	// LinkEmail registra email → uid en el sorted set.
	LinkEmail(ctx context.Context, email string, uid int64) error
	Ping(ctx context.Context) error
}
