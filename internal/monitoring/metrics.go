package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

var (
	ticketEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_events_total",
			Help: "Lifecycle events emitted by the registry, by kind",
		},
		[]string{"kind"},
	)

	rejectedCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_rejected_calls_total",
			Help: "Registry calls rejected at the HTTP layer, by error class",
		},
		[]string{"reason"},
	)

	ticketCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_count",
			Help: "Number of tickets ever minted in the registry",
		},
	)
)

// TrackEvent records one emitted lifecycle event. Called from the event
// forwarder, so it sees every committed mutation exactly once.
func TrackEvent(ev registry.Event) {
	ticketEvents.WithLabelValues(string(ev.Kind)).Inc()
	if ev.Kind == registry.KindTicketCreated {
		ticketCount.Inc()
	}
}

// TrackRejection records a registry call that failed with the given error
// class ("not_authorized", "invalid_input", ...).
func TrackRejection(reason string) {
	rejectedCalls.WithLabelValues(reason).Inc()
}
