package bridge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/sessionbridge/internal/metrics"
	"github.com/dropDatabas3/sessionbridge/internal/observability/logger"
	"github.com/dropDatabas3/sessionbridge/internal/store"
)

// Reconciler mapea una identidad externa a una cuenta local: reuso por
// external id, merge por email, o creación. El orden de decisión es fijo y
// el vínculo external-id→uid nunca se pisa una vez escrito (solo se escribe
// para colgar un id no vinculado de una cuenta encontrada por email).
type Reconciler struct {
	users   store.UserStore
	indexes store.IndexStore

	// sf serializa reconciliaciones concurrentes del mismo external id en
	// este proceso. Entre procesos la carrera create-vs-create sigue
	// existiendo.
	sf singleflight.Group
}

func NewReconciler(users store.UserStore, indexes store.IndexStore) *Reconciler {
	return &Reconciler{users: users, indexes: indexes}
}

// Reconcile resuelve el uid local para la identidad dada bajo el namespace
// de índice configurado (settings.Name). Toda falla de lookup o escritura se
// surface como ErrReconciliation, sin limpieza de estado parcial.
func (r *Reconciler) Reconcile(ctx context.Context, namespace string, id Identity) (int64, error) {
	v, err, _ := r.sf.Do(namespace+":"+id.ExternalID, func() (any, error) {
		return r.reconcile(ctx, namespace, id)
	})
	if err != nil {
		metrics.ReconcileTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	return v.(int64), nil
}

func (r *Reconciler) reconcile(ctx context.Context, namespace string, id Identity) (int64, error) {
	log := logger.From(ctx).Named("reconcile")

	// Los dos lookups corren en paralelo, sin garantía de orden entre sí.
	// La prioridad external-id-antes-que-email se aplica recién después del
	// join, así el resultado no depende de cuál terminó primero.
	var (
		extUID, emailUID int64
		extOK, emailOK   bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		extUID, extOK, err = r.indexes.UIDByExternalID(gctx, namespace, id.ExternalID)
		return err
	})
	g.Go(func() error {
		var err error
		emailUID, emailOK, err = r.indexes.UIDByEmail(gctx, id.Email)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("%w: index lookup: %v", ErrReconciliation, err)
	}

	// Paso 2: el vínculo external id existente es autoritativo.
	if extOK {
		if err := r.syncUsername(ctx, extUID, id.Username); err != nil {
			return 0, err
		}
		metrics.ReconcileTotal.WithLabelValues("reuse").Inc()
		return extUID, nil
	}

	// Paso 3: cuenta existente encontrada por email, todavía sin vincular a
	// este external id. Merge: se escribe el vínculo y se reusa la cuenta.
	if id.Email != "" && emailOK {
		log.Info("found local account via email, associating external id",
			logger.ExternalID(id.ExternalID), logger.UID(emailUID))
		if err := r.indexes.LinkExternalID(ctx, namespace, id.ExternalID, emailUID); err != nil {
			return 0, fmt.Errorf("%w: linking external id: %v", ErrReconciliation, err)
		}
		if err := r.syncUsername(ctx, emailUID, id.Username); err != nil {
			return 0, err
		}
		metrics.ReconcileTotal.WithLabelValues("merge").Inc()
		return emailUID, nil
	}

	// Paso 4: sin match por ninguno de los dos índices, cuenta nueva.
	log.Info("no local account found, creating one",
		logger.ExternalID(id.ExternalID), logger.Email(id.Email))

	uid, err := r.users.Create(ctx, store.NewUser{
		Username: id.Username,
		Email:    id.Email,
		Picture:  id.Picture,
		FullName: id.FullName(),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: creating user: %v", ErrReconciliation, err)
	}
	if err := r.indexes.LinkExternalID(ctx, namespace, id.ExternalID, uid); err != nil {
		return 0, fmt.Errorf("%w: linking external id: %v", ErrReconciliation, err)
	}
	metrics.ReconcileTotal.WithLabelValues("create").Inc()
	return uid, nil
}

// syncUsername actualiza el username local si difiere del extraído.
// One-way: lo local nunca pisa lo remoto. Username vacío no sincroniza.
func (r *Reconciler) syncUsername(ctx context.Context, uid int64, username string) error {
	if username == "" {
		return nil
	}
	profile, err := r.users.GetByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("%w: loading profile %d: %v", ErrReconciliation, uid, err)
	}
	if profile.Username == username {
		return nil
	}
	if err := r.users.UpdateUsername(ctx, uid, username); err != nil {
		return fmt.Errorf("%w: updating username for %d: %v", ErrReconciliation, uid, err)
	}
	return nil
}
