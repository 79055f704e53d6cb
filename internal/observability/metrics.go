package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "landcover_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline.
type Metrics struct {
	TilesWritten prometheus.Counter
	TilesEroded  prometheus.Counter
	TilesSkipped prometheus.Counter

	PixelsSurviving *prometheus.CounterVec // labels: lc

	RowsJoined         prometheus.Counter
	RowsOutsideRegions prometheus.Counter
	SamplesWritten     prometheus.Counter
	GroupsOversampled  prometheus.Counter
	ArtifactsPublished *prometheus.CounterVec // labels: kind, outcome={success,error}

	StageDuration   *prometheus.HistogramVec // labels: stage
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_written_total",
			Help:      "Tiles cut from the source raster.",
		}),
		TilesEroded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_eroded_total",
			Help:      "Tile and class pairs that produced surviving pixels.",
		}),
		TilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_skipped_total",
			Help:      "Tile and class pairs with no surviving pixels.",
		}),
		PixelsSurviving: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixels_surviving_total",
			Help:      "Pixels kept by erosion, by land-cover class.",
		}, []string{"lc"}),
		RowsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_joined_total",
			Help:      "Points matched to a region polygon.",
		}),
		RowsOutsideRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_outside_regions_total",
			Help:      "Points dropped by the region join.",
		}),
		SamplesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_written_total",
			Help:      "Sampled points written to output tables.",
		}),
		GroupsOversampled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_oversampled_total",
			Help:      "Sampling groups smaller than the sample size, drawn with replacement.",
		}),
		ArtifactsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_published_total",
			Help:      "Artifact events sent to Kafka by kind and outcome.",
		}, []string{"kind", "outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TilesWritten,
		m.TilesEroded,
		m.TilesSkipped,
		m.PixelsSurviving,
		m.RowsJoined,
		m.RowsOutsideRegions,
		m.SamplesWritten,
		m.GroupsOversampled,
		m.ArtifactsPublished,
		m.StageDuration,
		m.PipelineRunning,
	}
}
