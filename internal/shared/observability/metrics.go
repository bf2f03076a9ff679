package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jjsdev_build_seconds",
		Help:    "Time spent in one BuildFrom or generated-units build.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	BuildIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jjsdev_build_iterations",
		Help:    "Compile rounds needed before no cached unit was invalidated.",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 16, 32, 64},
	})

	UnitsCompiledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jjsdev_units_compiled_total",
		Help: "Total number of compilation units built from source.",
	})

	UnitsReusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jjsdev_units_reused_total",
		Help: "Total number of compilation units taken from the unit cache.",
	})

	UnitsInvalidatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jjsdev_units_invalidated_total",
		Help: "Total number of cached units rebuilt because a dependency changed.",
	})

	UnitCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jjsdev_unit_cache_lookups_total",
		Help: "Unit cache lookups by cache kind and result.",
	}, []string{"cache", "result"})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jjsdev_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	BlobStoreBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jjsdev_blob_store_hot_bytes",
		Help: "Bytes of class data held in the blob store's hot set.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jjsdev_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
