// Package metrics exposes Prometheus collectors for the blog server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers (and tests) can coexist
// in one process.
type Metrics struct {
	reg *prometheus.Registry

	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration *prometheus.HistogramVec
	// RequestTotal counts HTTP requests by method, route, status.
	RequestTotal *prometheus.CounterVec
	// AuthEvents counts account events by kind (login, register, logout,
	// reset) and result (ok, rejected, error).
	AuthEvents *prometheus.CounterVec
	// MailTotal counts reset mails by result (sent, failed).
	MailTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_auth_events_total",
				Help: "Account events by kind and result",
			},
			[]string{"kind", "result"},
		),
		MailTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_mail_total",
				Help: "Outgoing mail by result",
			},
			[]string{"result"},
		),
	}

	m.reg.MustRegister(
		m.RequestDuration, m.RequestTotal, m.AuthEvents, m.MailTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest records duration and count for one HTTP request. route is
// the matched route pattern, not the raw path.
func (m *Metrics) RecordRequest(method, route string, statusCode int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	status := strconv.Itoa(statusCode)
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	m.RequestTotal.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) AuthEvent(kind, result string) {
	m.AuthEvents.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Mail(result string) {
	m.MailTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
