// Package metrics exposes prometheus collectors for the action engine.
// Every method is safe on a nil *Collectors so the core runs without a
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "actionengine"

	// Refusal reasons.
	ReasonBuild       = "build"
	ReasonBlocked     = "blocked"
	ReasonQueueFull   = "queue_full"
	ReasonStartFailed = "start_failed"
)

type Collectors struct {
	admitted     *prometheus.CounterVec
	queued       *prometheus.CounterVec
	refused      *prometheus.CounterVec
	cancelled    *prometheus.CounterVec
	interrupts   *prometheus.CounterVec
	typeCancels  *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	active       prometheus.Gauge
	tickDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		admitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "admitted_total",
			Help:      "Actions started by a supervisor.",
		}, []string{"type"}),
		queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "queued_total",
			Help:      "Blocking actions queued behind a running blocking action.",
		}, []string{"type"}),
		refused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "refused_total",
			Help:      "Action requests the supervisor refused.",
		}, []string{"type", "reason"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "cancelled_total",
			Help:      "Live actions cancelled before completing.",
		}, []string{"type"}),
		interrupts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "activities_total",
			Help:      "Gameplay activities routed to live actions.",
		}, []string{"activity"}),
		typeCancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "type_cancels_total",
			Help:      "Cancel-by-type broadcasts sent to observers.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "dropped_messages_total",
			Help:      "Replication messages dropped because a subscriber was too slow.",
		}, []string{"sink"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "active_actions",
			Help:      "Live action lifecycles across all characters.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "world",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent in one simulation tick.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.admitted, c.queued, c.refused, c.cancelled,
			c.interrupts, c.typeCancels, c.dropped,
			c.active, c.tickDuration,
		)
	}
	return c
}

func (c *Collectors) ActionAdmitted(actionType string) {
	if c == nil {
		return
	}
	c.admitted.WithLabelValues(actionType).Inc()
	c.active.Inc()
}

func (c *Collectors) ActionQueued(actionType string) {
	if c == nil {
		return
	}
	c.queued.WithLabelValues(actionType).Inc()
}

func (c *Collectors) ActionRefused(actionType, reason string) {
	if c == nil {
		return
	}
	c.refused.WithLabelValues(actionType, reason).Inc()
}

func (c *Collectors) ActionCancelled(actionType string) {
	if c == nil {
		return
	}
	c.cancelled.WithLabelValues(actionType).Inc()
}

// ActionRemoved decrements the live gauge once a lifecycle leaves its
// supervisor, whatever the reason.
func (c *Collectors) ActionRemoved() {
	if c == nil {
		return
	}
	c.active.Dec()
}

func (c *Collectors) ActivityRouted(activity string) {
	if c == nil {
		return
	}
	c.interrupts.WithLabelValues(activity).Inc()
}

func (c *Collectors) TypeCancelBroadcast(actionType string) {
	if c == nil {
		return
	}
	c.typeCancels.WithLabelValues(actionType).Inc()
}

func (c *Collectors) MessageDropped(sink string) {
	if c == nil {
		return
	}
	c.dropped.WithLabelValues(sink).Inc()
}

func (c *Collectors) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.tickDuration.Observe(d.Seconds())
}
