package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-level gauges shared by the server and job CLI.
type Metrics struct {
	BuildInfo        *prometheus.GaugeVec
	DependencyHealth *prometheus.GaugeVec
}

// New creates and registers process metrics.
func New(version string) *Metrics {
	m := &Metrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reseller_build_info",
			Help: "Build information for the running binary",
		}, []string{"version"}),
		DependencyHealth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reseller_dependency_up",
			Help: "1 when the named dependency passed its last health check",
		}, []string{"dependency"}),
	}
	m.BuildInfo.WithLabelValues(version).Set(1)
	return m
}

// SetDependencyUp records the outcome of a dependency health check.
func (m *Metrics) SetDependencyUp(dependency string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.DependencyHealth.WithLabelValues(dependency).Set(v)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
