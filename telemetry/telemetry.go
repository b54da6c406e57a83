// File: telemetry/telemetry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/momentics/hioload-devmem/api"
)

// Collector implements api.Telemetry on top of Prometheus primitives.
type Collector struct {
	allocs          *prometheus.CounterVec
	allocBytes      prometheus.Counter
	allocLatency    prometheus.Histogram
	frees           prometheus.Counter
	freedBytes      prometheus.Counter
	transfers       *prometheus.CounterVec
	transferBytes   *prometheus.CounterVec
	transferLatency *prometheus.HistogramVec
	kernelLaunches  prometheus.Counter
}

var _ api.Telemetry = (*Collector)(nil)

// NewCollector registers all devmem metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		allocs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "allocations_total",
			Help:      "Pool allocation attempts by outcome.",
		}, []string{"outcome"}),
		allocBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "allocated_bytes_total",
			Help:      "Reserved bytes handed out by the pool.",
		}),
		allocLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "devmem",
			Name:      "allocation_latency_seconds",
			Help:      "Latency of the first-fit search and claim.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		frees: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "frees_total",
			Help:      "Successful frees returned to the pool.",
		}),
		freedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "freed_bytes_total",
			Help:      "Reserved bytes returned to the pool.",
		}),
		transfers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "transfers_total",
			Help:      "Staged copies by direction.",
		}, []string{"direction"}),
		transferBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "transfer_bytes_total",
			Help:      "Bytes staged by direction.",
		}, []string{"direction"}),
		transferLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devmem",
			Name:      "transfer_latency_seconds",
			Help:      "Latency of staged copies.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"direction"}),
		kernelLaunches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "devmem",
			Name:      "kernel_launches_total",
			Help:      "Compute kernel dispatches.",
		}),
	}
}

// AllocObserved implements api.Telemetry.
func (c *Collector) AllocObserved(bytes int, ok bool, latency time.Duration) {
	outcome := "ok"
	if ok {
		c.allocBytes.Add(float64(bytes))
	} else {
		outcome = "out_of_space"
	}
	c.allocs.WithLabelValues(outcome).Inc()
	c.allocLatency.Observe(latency.Seconds())
}

// FreeObserved implements api.Telemetry.
func (c *Collector) FreeObserved(bytes int) {
	c.frees.Inc()
	c.freedBytes.Add(float64(bytes))
}

// TransferObserved implements api.Telemetry.
func (c *Collector) TransferObserved(dir api.TransferDirection, bytes int, latency time.Duration) {
	label := dir.String()
	c.transfers.WithLabelValues(label).Inc()
	c.transferBytes.WithLabelValues(label).Add(float64(bytes))
	c.transferLatency.WithLabelValues(label).Observe(latency.Seconds())
}

// KernelLaunchObserved implements api.Telemetry.
func (c *Collector) KernelLaunchObserved() {
	c.kernelLaunches.Inc()
}
