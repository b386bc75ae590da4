package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for price resolution and price sync.
type Metrics struct {
	// Quote outcomes by action and result (ok, no_price, error)
	Quotes *prometheus.CounterVec

	// Price rows appended by sync, by outcome (new, updated)
	PriceRowsAppended *prometheus.CounterVec
}

// New registers the pricing metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		Quotes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_pricing_quotes_total",
			Help: "Total price quotes by action and outcome",
		}, []string{"action", "outcome"}),

		PriceRowsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_pricing_rows_appended_total",
			Help: "Total TLD price rows appended by price sync",
		}, []string{"outcome"}),
	}
}

// IncQuote records a quote outcome.
func (m *Metrics) IncQuote(action, outcome string) {
	if m != nil {
		m.Quotes.WithLabelValues(action, outcome).Inc()
	}
}

// IncPriceRow records an appended price row.
func (m *Metrics) IncPriceRow(outcome string) {
	if m != nil {
		m.PriceRowsAppended.WithLabelValues(outcome).Inc()
	}
}
