package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PipelinesStarted counts ingestion pipelines entered, whatever the outcome.
	PipelinesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certificate_pipelines_started_total",
		Help: "Total certificate pipelines started",
	})

	// PipelinesCompleted counts terminal outcomes by general status.
	PipelinesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certificate_pipelines_completed_total",
		Help: "Total certificate pipelines completed, by outcome",
	}, []string{"outcome"})

	// VerificationTimeouts counts poll loops that hit the configured ceiling.
	VerificationTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certificate_verification_timeouts_total",
		Help: "Total verification polls that exceeded the wait bound",
	})

	// VerificationDuration observes dispatch-to-terminal verification latency.
	VerificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "certificate_verification_duration_seconds",
		Help:    "Verification round-trip duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	})
)

// Handler exposes the Prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
