// Package metrics exposes run metrics in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	resultPass = "pass"
	resultFail = "fail"

	resultOK    = "ok"
	resultError = "error"
)

// Registry holds all Prometheus metrics of a run.
type Registry struct {
	ChecksTotal       *prometheus.CounterVec
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	IterationsTotal   *prometheus.CounterVec
	IterationDuration prometheus.Histogram
	VUsActive         prometheus.Gauge

	reg *prometheus.Registry
}

// NewRegistry creates the metrics on a private prometheus registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loginload_checks_total",
			Help: "Total check evaluations by check name and result",
		}, []string{"check", "result"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loginload_http_reqs_total",
			Help: "Total HTTP requests made by scenarios by status code",
		}, []string{"status"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loginload_http_req_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		IterationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loginload_iterations_total",
			Help: "Total scenario iterations by result",
		}, []string{"result"}),
		IterationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loginload_iteration_duration_seconds",
			Help:    "Scenario iteration duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		VUsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loginload_vus_active",
			Help: "Number of virtual users currently running an iteration or loop",
		}),
		reg: reg,
	}
}

// Record implements check.Recorder.
func (r *Registry) Record(name string, ok bool) {
	result := resultFail
	if ok {
		result = resultPass
	}
	r.ChecksTotal.WithLabelValues(name, result).Inc()
}

func (r *Registry) ObserveRequest(status int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	r.RequestDuration.Observe(d.Seconds())
}

func (r *Registry) ObserveIteration(err error, d time.Duration) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	r.IterationsTotal.WithLabelValues(result).Inc()
	r.IterationDuration.Observe(d.Seconds())
}

func (r *Registry) SetActiveVUs(n int64) {
	r.VUsActive.Set(float64(n))
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
