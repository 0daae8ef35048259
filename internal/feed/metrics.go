package feed

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refto_feed_operations_total",
			Help: "Feed engine operations by name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	invalidCursors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "refto_feed_invalid_cursors_total",
			Help: "Feed cursors that could not be decoded and restarted from the first page.",
		},
	)

	defaultPageAnomalies = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "refto_default_page_anomalies_total",
			Help: "Current-version resolutions that found more than one default page for a site.",
		},
	)

	likeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refto_like_toggles_total",
			Help: "Like toggles by resulting state.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal, invalidCursors, defaultPageAnomalies, likeToggles)
}

// observe records the outcome of one feed operation.
func observe(operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsValidation(err):
		outcome = "invalid"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}
