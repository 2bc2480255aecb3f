package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Message is one rendered notification. Detail may be empty.
//
// MatchID, EventID and Type identify the event the message was rendered
// from; chat channels ignore them, broker channels publish them.
type Message struct {
	Subject string `json:"subject"`
	Detail  string `json:"detail,omitempty"`
	MatchID string `json:"matchId,omitempty"`
	EventID string `json:"eventId,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Text joins subject and detail on separate lines.
func (m Message) Text() string {
	if m.Detail == "" {
		return m.Subject
	}
	return m.Subject + "\n" + m.Detail
}

// Notifier defines the interface for delivering match notifications
type Notifier interface {
	// Notify delivers one message
	Notify(ctx context.Context, msg Message) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, msg Message) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// envelope is the document published by the broker notifiers.
type envelope struct {
	Message
	Locale string    `json:"locale,omitempty"`
	SentAt time.Time `json:"sentAt"`
}

type target struct {
	name     string
	notifier Notifier
}

// Multi delivers every message to all of its targets. A failing target does
// not stop delivery to the others.
type Multi struct {
	targets []target
}

// NewMulti creates an empty fan-out notifier.
func NewMulti() *Multi {
	return &Multi{}
}

// Add registers a target under a name used in error messages.
func (m *Multi) Add(name string, n Notifier) *Multi {
	m.targets = append(m.targets, target{name: name, notifier: n})
	return m
}

// Len returns the number of targets.
func (m *Multi) Len() int {
	return len(m.targets)
}

// Names returns the target names in registration order.
func (m *Multi) Names() []string {
	names := make([]string, len(m.targets))
	for i, t := range m.targets {
		names[i] = t.name
	}
	return names
}

// Notify sends msg to every target and joins the failures.
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.notifier.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}
