package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enigma"

var (
	descSessionsActive = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "sessions_active"),
		"Number of open cipher sessions", nil, nil)
	descSessionsTotal = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "sessions_total"),
		"Total cipher sessions accepted", nil, nil)
	descLetters = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "letters_enciphered_total"),
		"Letters enciphered across all sessions", nil, nil)
	descBytes = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "bytes_total"),
		"Bytes moved by the cipher service", []string{"direction"}, nil)
	descErrors = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "errors_total"),
		"Session and accept errors", nil, nil)
	descUptime = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "uptime_seconds"),
		"Time since the service started in seconds", nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descSessionsActive
	ch <- descSessionsTotal
	ch <- descLetters
	ch <- descBytes
	ch <- descErrors
	ch <- descUptime
}

// Collect implements prometheus.Collector.  Values are read from the
// atomic counters at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descSessionsActive, prometheus.GaugeValue, float64(c.ActiveSessions()))
	ch <- prometheus.MustNewConstMetric(descSessionsTotal, prometheus.CounterValue, float64(c.TotalSessions()))
	ch <- prometheus.MustNewConstMetric(descLetters, prometheus.CounterValue, float64(c.TotalLetters()))
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(c.TotalBytesIn()), "in")
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(c.TotalBytesOut()), "out")
	ch <- prometheus.MustNewConstMetric(descErrors, prometheus.CounterValue, float64(c.ErrorCount()))

	var uptime float64
	if c != nil {
		uptime = time.Since(c.startTime).Seconds()
	}
	ch <- prometheus.MustNewConstMetric(descUptime, prometheus.GaugeValue, uptime)
}

// Registry returns a fresh registry holding c and the Go runtime
// collectors.
func (c *Collector) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

// Handler returns an http.Handler serving c in the Prometheus text
// format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{})
}
