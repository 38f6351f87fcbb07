// Package metrics exposes Prometheus counters and histograms for the KV
// store's put/get/delete traffic, background engine activity, and
// replication outcomes.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric this process exposes. One Collector should
// be constructed per process (shard or router); its metrics are registered
// against the default Prometheus registry at construction time.
type Collector struct {
	puts    prometheus.Counter
	gets    prometheus.Counter
	deletes prometheus.Counter

	notFound prometheus.Counter

	flushes   prometheus.Counter
	snapshots prometheus.Counter
	routes    prometheus.Counter

	replicaAcks prometheus.Histogram
}

// NewCollector builds and registers a Collector. namespace distinguishes a
// shard's metrics from a router's when both are scraped from the same
// Prometheus target set (e.g. "shard" or "router").
func NewCollector(namespace string) *Collector {
	c := &Collector{
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_puts_total",
			Help:      "Total number of PUT requests handled.",
		}),
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_gets_total",
			Help:      "Total number of GET requests handled.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_deletes_total",
			Help:      "Total number of DELETE requests handled.",
		}),
		notFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_not_found_total",
			Help:      "Total number of GET/DELETE requests for a missing key.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_flushes_total",
			Help:      "Total number of WAL flush cycles completed.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_snapshots_total",
			Help:      "Total number of snapshots written.",
		}),
		routes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "router_routes_total",
			Help:      "Total number of shard-selection lookups performed.",
		}),
		replicaAcks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replication_acks",
			Help:      "Distribution of ack counts observed per replicated write.",
			Buckets:   prometheus.LinearBuckets(1, 1, 6),
		}),
	}

	prometheus.MustRegister(
		c.puts, c.gets, c.deletes, c.notFound,
		c.flushes, c.snapshots, c.routes,
		c.replicaAcks,
	)

	return c
}

func (c *Collector) RecordPut()      { c.puts.Inc() }
func (c *Collector) RecordGet()      { c.gets.Inc() }
func (c *Collector) RecordDelete()   { c.deletes.Inc() }
func (c *Collector) RecordNotFound() { c.notFound.Inc() }
func (c *Collector) RecordFlush()    { c.flushes.Inc() }
func (c *Collector) RecordSnapshot() { c.snapshots.Inc() }
func (c *Collector) RecordRoute()    { c.routes.Inc() }

// ObserveReplicaAcks records how many replicas (including self) acked a
// single write.
func (c *Collector) ObserveReplicaAcks(acks int) {
	c.replicaAcks.Observe(float64(acks))
}

// Register mounts /metrics on g.
func Register(g *gin.Engine) {
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
