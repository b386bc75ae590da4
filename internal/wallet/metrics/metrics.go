package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ledger postings.
type Metrics struct {
	Postings          *prometheus.CounterVec
	InsufficientFunds prometheus.Counter
	LowBalanceAlerts  prometheus.Counter
}

// New registers the wallet metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		Postings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reseller_wallet_postings_total",
			Help: "Total ledger postings by transaction type and outcome",
		}, []string{"type", "outcome"}),

		InsufficientFunds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reseller_wallet_insufficient_funds_total",
			Help: "Debits rejected because the balance was too low",
		}),

		LowBalanceAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reseller_wallet_low_balance_alerts_total",
			Help: "Low balance notifications emitted after debits",
		}),
	}
}

func (m *Metrics) IncPosting(txType, outcome string) {
	if m != nil {
		m.Postings.WithLabelValues(txType, outcome).Inc()
	}
}

func (m *Metrics) IncInsufficientFunds() {
	if m != nil {
		m.InsufficientFunds.Inc()
	}
}

func (m *Metrics) IncLowBalance() {
	if m != nil {
		m.LowBalanceAlerts.Inc()
	}
}
