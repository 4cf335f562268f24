package settings

import (
	"context"
	"sync/atomic"

	"github.com/dropDatabas3/sessionbridge/internal/observability/logger"
)

// Snapshot es una vista inmutable de los settings vigentes. El gatekeeper
// toma un snapshot al inicio de cada request; un reload concurrente nunca
// cambia los settings a mitad de un request.
type Snapshot struct {
	Settings
	// Ready indica si el bridge está habilitado. Solo Reload la pone en true,
	// y solo cuando hay un secret configurado.
	Ready bool
}

// Loader carga los settings desde el Store y publica snapshots atómicos.
// Reload puede llamarse las veces que haga falta (hot reload); es idempotente.
type Loader struct {
	store Store
	base  Settings
	cur   atomic.Pointer[Snapshot]
}

// NewLoader crea un loader sobre el store dado. base son los defaults ya
// ajustados con la semilla estática de config; el contenido del store pisa
// a base en cada reload. El loader arranca not-ready hasta el primer Reload.
func NewLoader(store Store, base Settings) *Loader {
	l := &Loader{store: store, base: base}
	l.cur.Store(&Snapshot{Settings: base})
	return l
}

// Current retorna el snapshot vigente.
func (l *Loader) Current() Snapshot {
	return *l.cur.Load()
}

// Reload trae los settings del store y publica un snapshot nuevo.
//
// Sin secret configurado el bridge queda deshabilitado: el snapshot se
// publica not-ready y NO es un error (el resto del servicio sigue andando).
// Errores del store sí se propagan y dejan el snapshot anterior vigente.
func (l *Loader) Reload(ctx context.Context) error {
	log := logger.Named("settings")

	stored, err := l.store.Fetch(ctx)
	if err != nil {
		log.Error("settings fetch failed", logger.Err(err))
		return err
	}

	next := l.base.Merge(stored)
	if next.Secret == "" {
		log.Error("shared secret not configured, session sharing disabled")
		l.cur.Store(&Snapshot{Settings: next})
		return nil
	}

	l.cur.Store(&Snapshot{Settings: next, Ready: true})
	log.Info("settings loaded",
		logger.String("name", next.Name),
		logger.String("behaviour", next.Behaviour),
		logger.Endpoint(next.ExchangeTokenEndpoint),
	)
	return nil
}
