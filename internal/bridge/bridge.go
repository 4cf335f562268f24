// Package bridge implementa el core del session sharing: intercambio y
// verificación del token, extracción de claims y reconciliación de la
// identidad externa contra las cuentas locales.
//
// El flujo (secuencial, fail-fast) es:
//
//	token opaco → ExchangeAndVerify → Extract → Reconcile → uid local
package bridge

import (
	"context"

	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

// Processor compone verificación, extracción y reconciliación.
type Processor struct {
	verifier   *Verifier
	reconciler *Reconciler
}

func NewProcessor(v *Verifier, r *Reconciler) *Processor {
	return &Processor{verifier: v, reconciler: r}
}

// Process corre el waterfall completo para un token crudo y retorna el uid
// local resuelto. Los settings vienen del snapshot que tomó el request:
// inmutables durante todo el procesamiento.
func (p *Processor) Process(ctx context.Context, s settings.Settings, rawToken string) (int64, error) {
	payload, err := p.verifier.ExchangeAndVerify(ctx, s, rawToken)
	if err != nil {
		return 0, err
	}
	identity, err := Extract(payload, s.Payload)
	if err != nil {
		return 0, err
	}
	return p.reconciler.Reconcile(ctx, s.Name, identity)
}
