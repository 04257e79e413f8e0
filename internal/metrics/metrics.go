// Package metrics exports the watch loop's price/rate surface.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fyDesk/internal/wad"
)

// Metrics holds the gauges and counters updated by the refresh loop.
type Metrics struct {
	registry *prometheus.Registry

	SpotPrice     *prometheus.GaugeVec
	AnnualRate    *prometheus.GaugeVec
	RateAvailable *prometheus.GaugeVec
	PoolDirty     *prometheus.GaugeVec
	Refreshes     *prometheus.CounterVec
	RefreshErrors *prometheus.CounterVec
}

// New builds an isolated registry with the desk's metric set.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		SpotPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fydesk_spot_price",
			Help: "Base per fyToken spot price.",
		}, []string{"market"}),
		AnnualRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fydesk_annual_rate",
			Help: "Annualized fixed rate implied by the pool.",
		}, []string{"market"}),
		RateAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fydesk_rate_available",
			Help: "1 when a displayable rate exists, 0 otherwise.",
		}, []string{"market"}),
		PoolDirty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fydesk_pool_dirty",
			Help: "1 when the pool has a pending delta.",
		}, []string{"market"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fydesk_refreshes_total",
			Help: "Completed refresh iterations.",
		}, []string{"market"}),
		RefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fydesk_refresh_errors_total",
			Help: "Refresh iterations that failed.",
		}, []string{"market"}),
	}
	registry.MustRegister(m.SpotPrice, m.AnnualRate, m.RateAvailable, m.PoolDirty, m.Refreshes, m.RefreshErrors)
	return m
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WadToFloat converts a WAD value to a float64 gauge value.
func WadToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	f := new(big.Float).SetInt(value)
	f.Quo(f, new(big.Float).SetInt(wad.One))
	out, _ := f.Float64()
	return out
}
