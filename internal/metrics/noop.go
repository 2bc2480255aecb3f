package metrics

import "time"

// NoopSink discards all metrics.
type NoopSink struct{}

var _ Sink = NoopSink{}

func (NoopSink) RunCompleted(time.Duration, string) {}
func (NoopSink) MatchesTracked(int) {}
func (NoopSink) EventNotified(string) {}
func (NoopSink) EventDropped(string) {}
func (NoopSink) DeliveryFailed(string) {}
func (NoopSink) UpstreamRequest(time.Duration, error) {}
