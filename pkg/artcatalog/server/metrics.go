package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukaji3/artcatalog-go/pkg/artcatalog"
)

// Metrics holds the service collectors on a private registry. It also
// observes catalog builds.
type Metrics struct {
	registry *prometheus.Registry

	CatalogRequests *prometheus.CounterVec
	MediaRequests   *prometheus.CounterVec
	BuildDuration   prometheus.Histogram
	CatalogImages   prometheus.Gauge
	UnmappedMedia   prometheus.Gauge
}

// NewMetrics registers the collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CatalogRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artcatalog_catalog_requests_total",
				Help: "Catalog requests by response cache outcome",
			},
			[]string{"cache"},
		),
		MediaRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artcatalog_media_requests_total",
				Help: "Media requests by disk cache outcome",
			},
			[]string{"cache"},
		),
		BuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "artcatalog_catalog_build_seconds",
				Help:    "Time taken to build the catalog",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		CatalogImages: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "artcatalog_catalog_images",
				Help: "Images in the most recently built catalog",
			},
		),
		UnmappedMedia: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "artcatalog_unmapped_media",
				Help: "Media blobs in the workbook not reachable from any worksheet drawing",
			},
		),
	}
}

// CatalogBuilt implements artcatalog.Observer.
func (m *Metrics) CatalogBuilt(result *artcatalog.BuildResult) {
	m.BuildDuration.Observe((time.Duration(result.TotalMs) * time.Millisecond).Seconds())
	m.CatalogImages.Set(float64(result.TotalImages))
	m.UnmappedMedia.Set(float64(result.UnmappedMedia))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
