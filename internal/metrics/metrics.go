package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsHandled counts decoded events that reached a handler.
	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cthuindexer_events_handled_total",
			Help: "Total number of contract events handled",
		},
		[]string{"projector", "event"},
	)

	// DecodeErrors counts logs dropped because they could not be decoded.
	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cthuindexer_decode_errors_total",
			Help: "Total number of logs dropped due to decode errors",
		},
		[]string{"projector"},
	)

	// StoreErrors counts writes lost to store failures. There is no retry
	// queue; this counter is the only trace of a lost write.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cthuindexer_store_errors_total",
			Help: "Total number of failed document store writes",
		},
		[]string{"projector"},
	)

	// LastHandledBlock tracks the most recent block each projector has
	// seen an event from.
	LastHandledBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cthuindexer_last_handled_block",
			Help: "Block number of the most recently handled event",
		},
		[]string{"projector"},
	)

	// FarmTotalStaked mirrors the running staked total. A negative value
	// signals a missed deposit event.
	FarmTotalStaked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cthuindexer_farm_total_staked",
			Help: "Running staked total across all farm pools",
		},
	)

	// Uptime is the process uptime in seconds.
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cthuindexer_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)
