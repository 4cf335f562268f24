package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Bridge-related Prometheus metrics. Standalone package to avoid import
// cycles between the bridge core and the HTTP packages.

var (
	ExchangeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_exchange_duration_seconds",
		Help:    "Latencia del intercambio de token contra el identity provider",
		Buckets: prometheus.DefBuckets,
	})

	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_reconcile_total",
		Help: "Reconciliaciones por resultado",
	}, []string{"outcome"}) // outcome: reuse|merge|create|error

	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_decisions_total",
		Help: "Transiciones del gatekeeper por estado (un request puede pasar por más de uno)",
	}, []string{"decision"})
)

// RegisterBridge registers the bridge metrics on the given registry (or default if nil).
func RegisterBridge(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{ExchangeDuration, ReconcileTotal, DecisionsTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
