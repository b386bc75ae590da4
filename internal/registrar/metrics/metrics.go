package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registrar calls.
type Metrics struct {
	Calls            *prometheus.CounterVec
	CallDuration     *prometheus.HistogramVec
	AvailabilityHits *prometheus.CounterVec
	BreakerOpen      *prometheus.GaugeVec
	ClientsBuilt     *prometheus.CounterVec
}

// New registers the registrar metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		Calls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_registrar_calls_total",
			Help: "Registrar operations by registrar, operation and outcome",
		}, []string{"registrar", "operation", "outcome"}),

		CallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reseller_registrar_call_duration_seconds",
			Help:    "Latency of registrar operations",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"registrar", "operation"}),

		AvailabilityHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_registrar_availability_cache_total",
			Help: "Availability cache lookups by result (hit or miss)",
		}, []string{"registrar", "result"}),

		BreakerOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reseller_registrar_breaker_open",
			Help: "1 while the registrar circuit breaker is open",
		}, []string{"registrar"}),

		ClientsBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_registrar_clients_built_total",
			Help: "Registrar clients constructed by the factory, by class",
		}, []string{"class"}),
	}
}

// ObserveCall records one registrar call.
func (m *Metrics) ObserveCall(registrar, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(registrar, operation, outcome).Inc()
	m.CallDuration.WithLabelValues(registrar, operation).Observe(d.Seconds())
}

func (m *Metrics) IncAvailabilityCache(registrar string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AvailabilityHits.WithLabelValues(registrar, result).Inc()
}

func (m *Metrics) SetBreakerOpen(registrar string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(registrar).Set(v)
}

func (m *Metrics) IncClientBuilt(class string) {
	if m != nil {
		m.ClientsBuilt.WithLabelValues(class).Inc()
	}
}
