package eventreporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSent           = "sent"
	outcomeDeliveryFailed = "delivery_failed"
	outcomeMissingAPIKey  = "missing_api_key"
)

var (
	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bugsnag_mini",
			Name:      "reports_total",
			Help:      "Error reports by outcome.",
		},
		[]string{"outcome"},
	)

	deliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bugsnag_mini",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent POSTing a payload to the ingestion endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(reportsTotal, deliveryDuration)
}
