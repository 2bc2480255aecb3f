// Package metrics records run and delivery metrics.
//
// Sink is implemented by a Prometheus sink served in watch mode, an
// in-memory tracker printed by "run --stats", and a no-op sink.
package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations must not block or
// return errors.
type Sink interface {
	// RunCompleted records one poll. stage is empty on success and names
	// the failing stage otherwise.
	RunCompleted(duration time.Duration, stage string)
	MatchesTracked(count int)
	EventNotified(eventType string)
	EventDropped(rawType string)
	DeliveryFailed(eventType string)
	UpstreamRequest(duration time.Duration, err error)
}
