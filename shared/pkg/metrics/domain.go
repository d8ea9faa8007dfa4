package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IdentityVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_verifications_total",
		Help: "Bearer token verifications by outcome",
	}, []string{"result"})

	AuthzDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization guard decisions by operation and reason",
	}, []string{"operation", "reason"})

	PaymentIntents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intents_total",
		Help: "Payment intent creation attempts by outcome",
	}, []string{"result"})

	EventsPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_publish_errors_total",
		Help: "Domain events that could not be published",
	})

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Notifications emitted by the notification worker by event type",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(IdentityVerifications, AuthzDecisions, PaymentIntents, EventsPublishErrors, NotificationsSent)
}
