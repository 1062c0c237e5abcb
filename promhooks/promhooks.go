// Package promhooks exports the events of batch loaders as Prometheus metrics.
package promhooks

import (
	"github.com/karupanerura/connected-loader/batchloader"
	"github.com/prometheus/client_golang/prometheus"
)

// Opts configures the metrics of a Collector.
type Opts struct {
	Namespace string
	Subsystem string

	// Buckets of the batch size histogram. The default is exponential from 1 to 512.
	Buckets []float64
}

// Collector holds the metrics shared by the loaders. Each loader is distinguished by the "loader" label.
type Collector struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	batches       *prometheus.CounterVec
	batchFailures *prometheus.CounterVec
	keyFailures   *prometheus.CounterVec
	batchSize     *prometheus.HistogramVec
}

// New creates the metrics and registers them to reg.
func New(reg prometheus.Registerer, opts Opts) (*Collector, error) {
	labels := []string{"loader"}
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      name,
				Help:      help,
			},
			labels,
		)
	}

	buckets := opts.Buckets
	if buckets == nil {
		buckets = prometheus.ExponentialBuckets(1, 2, 10)
	}
	c := &Collector{
		cacheHits:     counter("cache_hits_total", "Total number of loads served by an existing cell"),
		cacheMisses:   counter("cache_misses_total", "Total number of loads that joined a batch"),
		batches:       counter("batches_total", "Total number of dispatched batches"),
		batchFailures: counter("batch_failures_total", "Total number of batches rejected as a whole"),
		keyFailures:   counter("key_failures_total", "Total number of per-key errors returned by batch functions"),
		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "batch_size",
				Help:      "Number of keys per dispatched batch",
				Buckets:   buckets,
			},
			labels,
		),
	}

	for _, collector := range []prometheus.Collector{
		c.cacheHits,
		c.cacheMisses,
		c.batches,
		c.batchFailures,
		c.keyFailures,
		c.batchSize,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks returns the hooks of the named loader.
func (c *Collector) Hooks(loader string) batchloader.Hooks {
	return &hooks{
		cacheHits:     c.cacheHits.WithLabelValues(loader),
		cacheMisses:   c.cacheMisses.WithLabelValues(loader),
		batches:       c.batches.WithLabelValues(loader),
		batchFailures: c.batchFailures.WithLabelValues(loader),
		keyFailures:   c.keyFailures.WithLabelValues(loader),
		batchSize:     c.batchSize.WithLabelValues(loader),
	}
}

type hooks struct {
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	batches       prometheus.Counter
	batchFailures prometheus.Counter
	keyFailures   prometheus.Counter
	batchSize     prometheus.Observer
}

var _ batchloader.Hooks = (*hooks)(nil)

func (h *hooks) CacheHit()  { h.cacheHits.Inc() }
func (h *hooks) CacheMiss() { h.cacheMisses.Inc() }

func (h *hooks) BatchDispatched(size int) {
	h.batches.Inc()
	h.batchSize.Observe(float64(size))
}

func (h *hooks) BatchFailed(int, error) { h.batchFailures.Inc() }
func (h *hooks) KeyFailed(error)        { h.keyFailures.Inc() }
