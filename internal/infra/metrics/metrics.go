// File: internal/infra/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	membershipChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_membership_checks_total",
			Help: "Membership oracle lookups per channel and outcome (joined/missing/error).",
		},
		[]string{"channel", "outcome"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_verifications_total",
			Help: "Full verification runs by result (granted/denied).",
		},
		[]string{"result"},
	)

	tokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gate_tokens_issued_total",
			Help: "Access tokens issued to verified users.",
		},
	)

	deliveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gate_delivery_failures_total",
			Help: "Telegram message deliveries that failed.",
		},
	)

	channelReachable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gate_channel_reachable",
			Help: "1 when the bot can inspect the required channel, 0 otherwise.",
		},
		[]string{"channel"},
	)

	coursesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gate_courses_total",
			Help: "Courses currently in the catalog.",
		},
	)
)

func IncMembershipCheck(channel, outcome string) {
	membershipChecks.WithLabelValues(channel, outcome).Inc()
}

func IncVerification(granted bool) {
	result := "denied"
	if granted {
		result = "granted"
	}
	verifications.WithLabelValues(result).Inc()
}

func IncTokenIssued() { tokensIssued.Inc() }

func IncDeliveryFailure() { deliveryFailures.Inc() }

func SetChannelReachable(channel string, ok bool) {
	v := 0.0
	if ok {
		v = 1.0
	}
	channelReachable.WithLabelValues(channel).Set(v)
}

func SetCoursesTotal(n int) { coursesTotal.Set(float64(n)) }
