// Package stats exposes the DMA driver's counters as Prometheus metrics.
// The driver itself only bumps atomics; this collector snapshots them on
// scrape, so observability stays out of the interrupt path.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"dmacore-go/dma"
)

type Collector struct {
	drv *dma.Driver

	allocs     *prometheus.Desc
	allocFails *prometheus.Desc
	releases   *prometheus.Desc
	interrupts *prometheus.Desc
	spurious   *prometheus.Desc
	callbacks  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(drv *dma.Driver) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("dma_"+name, help, nil, nil)
	}
	return &Collector{
		drv:        drv,
		allocs:     desc("stream_allocations_total", "Successful stream allocations."),
		allocFails: desc("stream_allocation_failures_total", "Allocations refused because no stream was free."),
		releases:   desc("stream_releases_total", "Stream releases."),
		interrupts: desc("interrupts_total", "Shared-vector interrupt firings served."),
		spurious:   desc("spurious_flags_total", "Candidate streams skipped because their latched flags were not enabled."),
		callbacks:  desc("callbacks_total", "Stream callbacks invoked."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocs
	ch <- c.allocFails
	ch <- c.releases
	ch <- c.interrupts
	ch <- c.spurious
	ch <- c.callbacks
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.drv.Stats()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.allocs, s.Allocs)
	counter(c.allocFails, s.AllocFails)
	counter(c.releases, s.Releases)
	counter(c.interrupts, s.Interrupts)
	counter(c.spurious, s.Spurious)
	counter(c.callbacks, s.Callbacks)
}
