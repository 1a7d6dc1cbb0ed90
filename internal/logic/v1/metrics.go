package v1

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sut_login_attempts_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	logouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sut_logouts_total",
			Help: "Logout requests.",
		},
	)

	mockResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sut_mock_responses_total",
			Help: "Generic mock responses by status class and injected error type.",
		},
		[]string{"status_class", "error_type"},
	)

	injectedDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sut_injected_delay_seconds",
			Help:    "Delay deliberately injected before responding.",
			Buckets: []float64{0, 0.1, 0.2, 0.5, 1, 2, 3.5, 5, 10},
		},
		[]string{"endpoint"},
	)
)

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 600:
		return strconv.Itoa(code/100) + "xx"
	default:
		return "other"
	}
}
