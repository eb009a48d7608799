package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchResults counts per-recipient broadcast outcomes.
	DispatchResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kairan_dispatch_results_total",
		Help: "Broadcast delivery outcomes per recipient.",
	}, []string{"result"}) // sent, skipped, failed, aborted

	// WebhookEvents counts inbound LINE webhook events by type.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kairan_webhook_events_total",
		Help: "Inbound LINE webhook events by type.",
	}, []string{"type"})

	// ReadReceipts counts newly inserted read receipts.
	ReadReceipts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kairan_read_receipts_total",
		Help: "Newly recorded read receipts (self and proxy).",
	})

	// Resolutions counts identity resolutions by case.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kairan_identity_resolutions_total",
		Help: "Identity resolutions by outcome.",
	}, []string{"outcome"}) // existing, linked, created, needs_profile
)
