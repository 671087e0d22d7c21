// Package telemetry exposes Prometheus metrics for the intake server: HTTP
// request metrics from an echo middleware, and admission engine metrics
// reported through the intake.Recorder interface.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intake"

// Config holds telemetry settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// RuntimeCollectors adds the Go runtime and process collectors.
	RuntimeCollectors bool
}

func (c *Config) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "intake-server"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	cfg      Config
	registry *prometheus.Registry

	httpDuration  *prometheus.HistogramVec
	httpActive    prometheus.Gauge
	registrations *prometheus.CounterVec
	admissions    *prometheus.CounterVec
	discharges    prometheus.Counter
	undos         *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec
	bedsOccupied  prometheus.Gauge
	bedsCapacity  prometheus.Gauge
	journalWrites *prometheus.CounterVec
}

func NewMetrics(cfg Config) *Metrics {
	cfg.applyDefaults()
	m := &Metrics{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   durationBuckets,
		}, []string{"method", "route", "status"}),
		httpActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Requests currently being served.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Patients registered, by queue.",
		}, []string{"queue"}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_attempts_total",
			Help:      "Admission attempts, by outcome.",
		}, []string{"outcome"}),
		discharges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharges_total",
			Help:      "Patients discharged.",
		}),
		undos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_total",
			Help:      "Undo requests, by operation kind and whether anything was reversed.",
		}, []string{"kind", "reversed"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Patients waiting, by queue.",
		}, []string{"queue"}),
		bedsOccupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beds_occupied",
			Help:      "Occupied beds across all rooms.",
		}),
		bedsCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beds_capacity",
			Help:      "Total beds across all rooms.",
		}),
		journalWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_writes_total",
			Help:      "Audit journal writes, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.httpDuration, m.httpActive,
		m.registrations, m.admissions, m.discharges, m.undos,
		m.queueDepth, m.bedsOccupied, m.bedsCapacity,
		m.journalWrites,
	)
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Constant 1, labelled with the service identity.",
		ConstLabels: prometheus.Labels{"service": cfg.ServiceName, "version": cfg.ServiceVersion, "environment": cfg.Environment},
	}, func() float64 { return 1 }))
	if cfg.RuntimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// -- intake.Recorder --

func (m *Metrics) ObserveRegistration(queue string) {
	m.registrations.WithLabelValues(queue).Inc()
}

func (m *Metrics) ObserveAdmission(outcome string) {
	m.admissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDischarge() {
	m.discharges.Inc()
}

func (m *Metrics) ObserveUndo(kind string, reversed bool) {
	m.undos.WithLabelValues(kind, strconv.FormatBool(reversed)).Inc()
}

func (m *Metrics) SetQueueDepth(queue string, depth int) {
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

func (m *Metrics) SetBedUsage(occupied, capacity int) {
	m.bedsOccupied.Set(float64(occupied))
	m.bedsCapacity.Set(float64(capacity))
}

// ObserveJournalWrite counts audit journal writes by success or failure.
func (m *Metrics) ObserveJournalWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.journalWrites.WithLabelValues(result).Inc()
}

// -- HTTP --

// Middleware records request latency and in-flight requests.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.httpActive.Inc()
			defer m.httpActive.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.httpDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))
}
