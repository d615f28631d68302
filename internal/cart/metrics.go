package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_quantity_updates_coalesced_total",
		Help: "Quantity changes absorbed by an already-armed debounce timer.",
	})

	metricFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_quantity_flushes_total",
		Help: "Debounced quantity updates sent upstream, by result.",
	}, []string{"result"})

	metricRefetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_refetches_total",
		Help: "Full cart refetches from the backend, by result.",
	}, []string{"result"})

	metricPendingTimers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cart_pending_flush_timers",
		Help: "Products with a debounce timer currently armed.",
	})
)
