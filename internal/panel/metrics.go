package panel

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded per stop and per reconnect.
const (
	OutcomeOK         = "ok"
	OutcomeSkipped    = "skipped"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the panel collectors in a private registry.
type Metrics struct {
	reg *prometheus.Registry

	Cycles         prometheus.Counter
	StopFetches    *prometheus.CounterVec // outcome: ok|skipped|fetch_error|parse_error
	Reconnects     *prometheus.CounterVec // outcome: success|failure
	RenderFailures prometheus.Counter

	Departures    prometheus.Gauge
	CycleDuration prometheus.Histogram
	WLANConnected prometheus.Gauge

	UpdateInterval prometheus.Gauge // seconds
	Stations       prometheus.Gauge
}

func NewMetrics(updateInterval time.Duration, stations int) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitpanel_cycles_total",
			Help: "Total refresh cycles run.",
		}),
		StopFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitpanel_stop_fetches_total",
			Help: "Per stop fetch results by outcome.",
		}, []string{"outcome"}),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitpanel_wlan_reconnects_total",
			Help: "WLAN reconnect attempts by outcome.",
		}, []string{"outcome"}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitpanel_render_failures_total",
			Help: "Frames that could not be committed to the display.",
		}),
		Departures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitpanel_departures",
			Help: "Departures collected in the last cycle.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitpanel_cycle_duration_seconds",
			Help:    "Duration of a refresh cycle, sleep excluded.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		WLANConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitpanel_wlan_connected",
			Help: "1 if the WLAN association is up, 0 otherwise.",
		}),
		UpdateInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitpanel_update_interval_seconds",
			Help: "Configured refresh interval in seconds.",
		}),
		Stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitpanel_stations",
			Help: "Number of configured stops.",
		}),
	}

	reg.MustRegister(
		m.Cycles, m.StopFetches, m.Reconnects, m.RenderFailures,
		m.Departures, m.CycleDuration, m.WLANConnected,
		m.UpdateInterval, m.Stations,
	)

	m.UpdateInterval.Set(updateInterval.Seconds())
	m.Stations.Set(float64(stations))

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) setConnected(up bool) {
	if up {
		m.WLANConnected.Set(1)
		return
	}
	m.WLANConnected.Set(0)
}
