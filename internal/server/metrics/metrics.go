// Package metrics collects and exposes Prometheus metrics for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records API and pipeline events for Prometheus scraping.
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	codesSent      prometheus.Counter
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
	worksQueued    prometheus.Counter
	worksRendered  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mgstudio_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mgstudio_request_latency_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		codesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mgstudio_codes_sent_total",
			Help: "Verification codes issued.",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mgstudio_login_success_total",
			Help: "Successful logins.",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mgstudio_login_fail_total",
			Help: "Failed login attempts.",
		}),
		worksQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mgstudio_works_queued_total",
			Help: "Generation jobs accepted.",
		}),
		worksRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mgstudio_works_rendered_total",
			Help: "Generation jobs completed by the render worker.",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.codesSent,
		c.loginSuccess,
		c.loginFail,
		c.worksQueued,
		c.worksRendered,
	)

	return c
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRequestLatency(d time.Duration) {
	c.requestLatency.Observe(d.Seconds())
}

func (c *Collector) RecordCodeSent() {
	c.codesSent.Inc()
}

func (c *Collector) RecordLogin(success bool) {
	if success {
		c.loginSuccess.Inc()
	} else {
		c.loginFail.Inc()
	}
}

func (c *Collector) RecordWorkQueued() {
	c.worksQueued.Inc()
}

func (c *Collector) RecordWorkRendered() {
	c.worksRendered.Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
