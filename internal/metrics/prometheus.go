package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	matchesTracked   prometheus.Gauge
	eventsNotified   *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

var _ Sink = (*PrometheusSink)(nil)

// NewPrometheusSink creates a sink whose collectors are registered on reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_runs_total",
			Help: "Total number of poll runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldcup_run_duration_seconds",
			Help:    "Duration of each poll run in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		matchesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worldcup_matches_tracked",
			Help: "Number of matches in the persisted snapshot.",
		}),
		eventsNotified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_events_notified_total",
			Help: "Total number of events delivered by type.",
		}, []string{"type"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_events_dropped_total",
			Help: "Total number of upstream events with an unknown type.",
		}, []string{"raw_type"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worldcup_delivery_failures_total",
			Help: "Total number of failed notifications by event type.",
		}, []string{"type"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worldcup_upstream_fetch_duration_seconds",
			Help:    "Duration of upstream fetches in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
	}

	s.register(reg, s.runsTotal, "worldcup_runs_total")
	s.register(reg, s.runDuration, "worldcup_run_duration_seconds")
	s.register(reg, s.matchesTracked, "worldcup_matches_tracked")
	s.register(reg, s.eventsNotified, "worldcup_events_notified_total")
	s.register(reg, s.eventsDropped, "worldcup_events_dropped_total")
	s.register(reg, s.deliveryFailures, "worldcup_delivery_failures_total")
	s.register(reg, s.upstreamDuration, "worldcup_upstream_fetch_duration_seconds")
	return s
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) RunCompleted(duration time.Duration, stage string) {
	s.runDuration.Observe(duration.Seconds())
	if stage == "" {
		s.runsTotal.WithLabelValues("success").Inc()
		return
	}
	s.runsTotal.WithLabelValues(stage + "_failed").Inc()
}

func (s *PrometheusSink) MatchesTracked(count int) {
	s.matchesTracked.Set(float64(count))
}

func (s *PrometheusSink) EventNotified(eventType string) {
	s.eventsNotified.WithLabelValues(eventType).Inc()
}

func (s *PrometheusSink) EventDropped(rawType string) {
	s.eventsDropped.WithLabelValues(rawType).Inc()
}

func (s *PrometheusSink) DeliveryFailed(eventType string) {
	s.deliveryFailures.WithLabelValues(eventType).Inc()
}

func (s *PrometheusSink) UpstreamRequest(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.upstreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
