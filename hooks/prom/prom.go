// Package promhooks exports cache events as Prometheus counters.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/memograph"
)

type Hooks struct {
	degraded   *prometheus.CounterVec
	promoted   *prometheus.CounterVec
	coalesced  prometheus.Counter
	strategies *prometheus.CounterVec
	purged     prometheus.Counter
}

var _ memograph.Hooks = (*Hooks)(nil)

// New builds the hook set and registers its collectors with reg
// (prometheus.DefaultRegisterer if nil). Keys are deliberately not a
// label; they are unbounded.
func New(reg prometheus.Registerer) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memograph_tier_degraded_total",
			Help: "Tier operations that failed and were degraded around.",
		}, []string{"tier", "op"}),
		promoted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memograph_promotions_total",
			Help: "Hits promoted from a slower tier into faster ones.",
		}, []string{"from"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memograph_coalesced_total",
			Help: "Callers that shared an in-flight computation.",
		}),
		strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "memograph_strategy_errors_total",
			Help: "Invalidation strategy failures.",
		}, []string{"strategy"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memograph_invalidated_keys_total",
			Help: "Keys purged by invalidation.",
		}),
	}
	reg.MustRegister(h.degraded, h.promoted, h.coalesced, h.strategies, h.purged)
	return h
}

func (h *Hooks) TierDegraded(tier, op, key string, err error) {
	h.degraded.WithLabelValues(tier, op).Inc()
}

func (h *Hooks) Promoted(key, from string, into int) {
	h.promoted.WithLabelValues(from).Inc()
}

func (h *Hooks) Coalesced(key string) {
	h.coalesced.Inc()
}

func (h *Hooks) StrategyError(name string, err error) {
	h.strategies.WithLabelValues(name).Inc()
}

func (h *Hooks) Invalidated(trigger string, purged int) {
	h.purged.Add(float64(purged))
}
