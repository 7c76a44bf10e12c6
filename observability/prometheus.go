package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ MetricFactory = (*PrometheusFactory)(nil)

// PrometheusFactory is a MetricFactory backed by prometheus/client_golang.
// Dotted metric names become underscore-separated Prometheus names; counters
// gain the conventional "_total" suffix.
type PrometheusFactory struct {
	factory promauto.Factory

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
	buckets    []float64
}

// NewPrometheusFactory registers metrics with reg. A nil reg uses the
// default Prometheus registerer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		factory:    promauto.With(reg),
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
		buckets:    prometheus.ExponentialBuckets(1, 10, 8),
	}
}

// WithBuckets overrides the histogram buckets for metrics created afterwards.
func (f *PrometheusFactory) WithBuckets(buckets []float64) *PrometheusFactory {
	f.buckets = buckets
	return f
}

// Counter returns the counter for name, creating and registering it once.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := f.factory.NewCounter(prometheus.CounterOpts{
		Name: promName(name) + "_total",
		Help: "Total number of " + strings.ReplaceAll(name, ".", " ") + " events",
	})
	f.counters[name] = c
	return c
}

// Histogram returns the histogram for name, creating and registering it once.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := f.factory.NewHistogram(prometheus.HistogramOpts{
		Name:    promName(name),
		Help:    "Distribution of " + strings.ReplaceAll(name, ".", " "),
		Buckets: f.buckets,
	})
	f.histograms[name] = h
	return h
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
