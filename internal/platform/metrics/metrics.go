package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ccdemo"

// Registry owns the collectors of one process. It satisfies the pipeline's
// metrics port and records HTTP request latency for the web UI.
type Registry struct {
	registry       *prometheus.Registry
	published      prometheus.Counter
	persisted      prometheus.Counter
	skipped        prometheus.Counter
	pagesServed    prometheus.Counter
	rowsServed     prometheus.Counter
	requestLatency *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_published_total",
			Help:      "Words confirmed by the broker.",
		}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_persisted_total",
			Help:      "Words inserted into the store.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_skipped_total",
			Help:      "Messages acknowledged without an insert because their payload was empty.",
		}),
		pagesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "word_pages_served_total",
			Help:      "Word pages returned by the read path.",
		}),
		rowsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "word_rows_served_total",
			Help:      "Rows returned across all word pages.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.published,
		r.persisted,
		r.skipped,
		r.pagesServed,
		r.rowsServed,
		r.requestLatency,
	)
	return r
}

func (r *Registry) WordPublished()  { r.published.Inc() }
func (r *Registry) WordPersisted()  { r.persisted.Inc() }
func (r *Registry) MessageSkipped() { r.skipped.Inc() }

func (r *Registry) PageServed(items int) {
	r.pagesServed.Inc()
	r.rowsServed.Add(float64(items))
}

func (r *Registry) ObserveHTTPRequest(route string, status int, elapsed time.Duration) {
	r.requestLatency.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the exposition format for this registry only.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled. Worker processes
// that have no other HTTP surface use it.
func (r *Registry) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting",
			"event", "metrics_server_starting",
			"module", "internal/platform/metrics",
			"layer", "platform",
			"addr", addr,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
