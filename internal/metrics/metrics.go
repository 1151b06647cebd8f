// Package metrics turns the outbound event stream into Prometheus series.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtding233/defuse-backend/internal/events"
)

const namespace = "defuse"

// Collector is an events.Sink backed by a private registry.
type Collector struct {
	registry *prometheus.Registry

	Armed         prometheus.Counter
	Outcomes      *prometheus.CounterVec
	PuzzleChanges *prometheus.CounterVec
	WiresCut      prometheus.Counter
	ScrewsRemoved prometheus.Counter
	LidsReleased  prometheus.Counter
	TickCues      prometheus.Counter
	FrameSeconds  prometheus.Histogram
}

// New registers every series on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		Armed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "armed_total",
			Help: "Sessions armed.",
		}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "outcomes_total",
			Help: "Terminal bomb outcomes.",
		}, []string{"outcome"}),
		PuzzleChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "puzzle_changes_total",
			Help: "Puzzle solved-flag transitions.",
		}, []string{"kind", "solved"}),
		WiresCut: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "wires_cut_total",
			Help: "Wires cut.",
		}),
		ScrewsRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "screws_removed_total",
			Help: "Screws fully unscrewed.",
		}),
		LidsReleased: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "lids_released_total",
			Help: "Lids released.",
		}),
		TickCues: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tick_cues_total",
			Help: "Countdown tick cues sent to presentation.",
		}),
		FrameSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "frame_seconds",
			Help:    "Wall time spent simulating one frame.",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		}),
	}
}

// Emit implements events.Sink.
func (c *Collector) Emit(e events.Event) {
	switch e.Type {
	case events.BombArmed:
		c.Armed.Inc()
	case events.BombOutcome:
		c.Outcomes.WithLabelValues(e.Outcome).Inc()
	case events.PuzzleSolvedChanged:
		c.PuzzleChanges.WithLabelValues(e.Kind, strconv.FormatBool(e.Solved)).Inc()
	case events.WireCut:
		c.WiresCut.Inc()
	case events.ScrewRemoved:
		c.ScrewsRemoved.Inc()
	case events.LidReleased:
		c.LidsReleased.Inc()
	case events.TickCue:
		c.TickCues.Inc()
	}
}

// ObserveFrame records how long one simulated frame took.
func (c *Collector) ObserveFrame(d time.Duration) {
	c.FrameSeconds.Observe(d.Seconds())
}

// Registry exposes the private registry, e.g. for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
