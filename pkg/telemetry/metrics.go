package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crawlterm"

// Input outcomes.
const (
	InputRouted   = "routed"
	InputDetached = "detached"
	InputStopped  = "stopped"
	InputNoCode   = "unmapped"
)

var (
	sessionRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_running",
		Help:      "1 while the engine session is running.",
	})
	engineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_runs_total",
		Help:      "Engine runs by how they ended.",
	}, []string{"result"})
	inputEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "input_events_total",
		Help:      "Input events seen by the key router, by outcome.",
	}, []string{"outcome"})
	inputDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "input_discarded_total",
		Help:      "Queued input dropped because its engine run ended.",
	})
	messagesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_posted_total",
		Help:      "Engine messages posted to the bridge, by kind.",
	}, []string{"kind"})
	messagesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_delivered_total",
		Help:      "Engine messages delivered to a surface, by kind.",
	}, []string{"kind"})
	bridgeDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bridge_queue_depth",
		Help:      "Messages waiting in the bridge after the last drain.",
	})
	rebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rebuilds_total",
		Help:      "Surface rebuilds, by result (completed or coalesced).",
	}, []string{"result"})
	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rebuild_duration_seconds",
		Help:      "Time spent in the rebuild critical region.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	spectators = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "spectators_connected",
		Help:      "Spectators connected to the debug stream.",
	})
	spectatorsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "spectators_dropped_total",
		Help:      "Spectators disconnected for falling behind.",
	})
	busDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_deliveries_dropped_total",
		Help:      "In-process bus deliveries dropped on a full subscriber queue.",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telemetry_events_dropped_total",
		Help:      "Telemetry events dropped because a subscriber fell behind.",
	})
)

// RecordBusDropped counts an in-process bus delivery that was dropped.
func RecordBusDropped() { busDropped.Inc() }

// SetSpectators records the connected spectator count.
func SetSpectators(n int) { spectators.Set(float64(n)) }

// RecordSpectatorDropped counts a spectator cut off for falling behind.
func RecordSpectatorDropped() { spectatorsDropped.Inc() }

// SetSessionRunning records the session running flag.
func SetSessionRunning(running bool) {
	if running {
		sessionRunning.Set(1)
		return
	}
	sessionRunning.Set(0)
}

// RecordEngineRun records how an engine run ended.
func RecordEngineRun(result string) {
	engineRuns.WithLabelValues(result).Inc()
}

// RecordInput records an input routing outcome.
func RecordInput(outcome string) {
	inputEvents.WithLabelValues(outcome).Inc()
}

// RecordInputDiscarded records stale input dropped between engine runs.
func RecordInputDiscarded(n int) {
	if n > 0 {
		inputDiscarded.Add(float64(n))
	}
}

// RecordMessagePosted counts a posted message.
func RecordMessagePosted(kind string) {
	messagesPosted.WithLabelValues(kind).Inc()
}

// RecordMessageDelivered counts a delivered message.
func RecordMessageDelivered(kind string) {
	messagesDelivered.WithLabelValues(kind).Inc()
}

// SetBridgeDepth records the bridge backlog.
func SetBridgeDepth(n int) {
	bridgeDepth.Set(float64(n))
}

// RecordRebuild records a completed rebuild and its duration.
func RecordRebuild(d time.Duration) {
	rebuilds.WithLabelValues("completed").Inc()
	rebuildDuration.Observe(d.Seconds())
}

// RecordRebuildCoalesced records a rebuild request folded into a running one.
func RecordRebuildCoalesced() {
	rebuilds.WithLabelValues("coalesced").Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
