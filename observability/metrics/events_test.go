package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"twine/core/events"
)

type testEvent string

func (e testEvent) EventType() string { return string(e) }

type recordingEmitter struct {
	seen []string
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.seen = append(r.seen, evt.EventType())
}

func TestEventCounterCountsByType(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := NewEventCounter(reg, nil)

	counter.Emit(testEvent("marketplace.purchase.completed"))
	counter.Emit(testEvent("marketplace.purchase.completed"))
	counter.Emit(testEvent("marketplace.store.created"))
	counter.Emit(nil)

	require.Equal(t, float64(2), testutil.ToFloat64(counter.counter.WithLabelValues("marketplace.purchase.completed")))
	require.Equal(t, float64(1), testutil.ToFloat64(counter.counter.WithLabelValues("marketplace.store.created")))
}

func TestEventCounterForwardsToNext(t *testing.T) {
	next := &recordingEmitter{}
	counter := NewEventCounter(prometheus.NewRegistry(), next)

	counter.Emit(testEvent("marketplace.redemption.settled"))
	require.Equal(t, []string{"marketplace.redemption.settled"}, next.seen)
}
