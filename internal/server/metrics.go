package server

import (
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Emitter emits different types of metrics.
type Emitter interface {
	AddCounter(metricName string, value float64, labels map[string]string)
	EmitGauge(metricName string, value float64, labels map[string]string)
}

type PrometheusEmitter struct {
	mutex    sync.Mutex
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]*prometheus.CounterVec
	registry prometheus.Registerer
}

func NewPrometheusEmitter(r prometheus.Registerer) *PrometheusEmitter {
	return &PrometheusEmitter{
		gauges:   make(map[string]*prometheus.GaugeVec),
		counters: make(map[string]*prometheus.CounterVec),
		registry: r,
	}
}

func (pe *PrometheusEmitter) EmitGauge(name string, value float64, labels map[string]string) {
	pe.mutex.Lock()
	defer pe.mutex.Unlock()
	vec, exists := pe.gauges[name]
	if !exists {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, slices.Collect(maps.Keys(labels)))
		pe.registry.MustRegister(vec)
		pe.gauges[name] = vec
	}
	vec.With(labels).Set(value)
}

func (pe *PrometheusEmitter) AddCounter(name string, value float64, labels map[string]string) {
	pe.mutex.Lock()
	defer pe.mutex.Unlock()
	vec, exists := pe.counters[name]
	if !exists {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, slices.Collect(maps.Keys(labels)))
		pe.registry.MustRegister(vec)
		pe.counters[name] = vec
	}
	vec.With(labels).Add(value)
}

// patternRe strips the METHOD prefix from a [http.ServeMux] pattern string.
var patternRe = regexp.MustCompile(`^[^\s]*\s+`)

type metricsMiddleware struct {
	Emitter
}

// Metrics captures per-request counts and latency. Requests are labelled by
// the mux pattern they matched rather than the raw path so that arbitrary
// request paths cannot mint new label values. The middleware must therefore
// run directly in front of the mux, which fills in the pattern.
func (mm metricsMiddleware) Metrics() MiddlewareFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		startTime := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next(lrw, r)

		duration := time.Since(startTime).Seconds()

		routePattern := patternRe.ReplaceAllString(r.Pattern, "")

		mm.Emitter.AddCounter("lookup_requests_total", 1.0, map[string]string{
			"verb":  r.Method,
			"code":  strconv.Itoa(lrw.statusCode),
			"route": routePattern,
		})

		mm.Emitter.EmitGauge("lookup_request_duration", duration, map[string]string{
			"verb":  r.Method,
			"code":  strconv.Itoa(lrw.statusCode),
			"route": routePattern,
		})
	}
}
