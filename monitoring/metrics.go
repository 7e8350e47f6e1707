package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checkoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session creation attempts by outcome",
		},
		[]string{"status"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by event type and outcome",
		},
		[]string{"type", "status"},
	)

	fulfillmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fulfillment_duration_seconds",
			Help:    "Duration of fulfillment transactions including retries",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"status"},
	)

	ticketsMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_minted_total",
			Help: "Tickets created by fulfilled orders",
		},
	)

	ticketVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_verifications_total",
			Help: "Gate scan verifications by result",
		},
		[]string{"result"},
	)

	ordersSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_swept_total",
			Help: "Stale pending orders cancelled by the sweep",
		},
	)
)

func TrackCheckoutSession(status string) {
	checkoutSessions.WithLabelValues(status).Inc()
}

func TrackWebhookEvent(eventType, status string) {
	webhookEvents.WithLabelValues(eventType, status).Inc()
}

func ObserveFulfillment(d time.Duration, status string) {
	fulfillmentDuration.WithLabelValues(status).Observe(d.Seconds())
}

func TrackTicketsMinted(n int) {
	ticketsMinted.Add(float64(n))
}

func TrackTicketVerification(result string) {
	ticketVerifications.WithLabelValues(result).Inc()
}

func TrackOrdersSwept(n int64) {
	ordersSwept.Add(float64(n))
}

// Serve exposes the Prometheus endpoint on its own listener.
func Serve(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(":"+port, mux)
}
