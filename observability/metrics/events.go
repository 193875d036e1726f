package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"twine/core/events"
)

// EventCounter is an events.Emitter that counts every emitted ledger event
// by type. It can be chained in front of another emitter so counting does
// not replace delivery.
type EventCounter struct {
	counter *prometheus.CounterVec
	next    events.Emitter
}

// NewEventCounter registers the event counter with the provided registerer
// and forwards events to next when it is non-nil.
func NewEventCounter(reg prometheus.Registerer, next events.Emitter) *EventCounter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twine",
		Subsystem: "ledger",
		Name:      "events_total",
		Help:      "Number of state-transition events emitted, by event type.",
	}, []string{"type"})
	if reg != nil {
		reg.MustRegister(counter)
	}
	return &EventCounter{counter: counter, next: next}
}

// Emit implements events.Emitter.
func (c *EventCounter) Emit(evt events.Event) {
	if c == nil || evt == nil {
		return
	}
	c.counter.WithLabelValues(evt.EventType()).Inc()
	if c.next != nil {
		c.next.Emit(evt)
	}
}
