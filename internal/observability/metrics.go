package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	submissionTransitions *prometheus.CounterVec
	examPaperTransitions  *prometheus.CounterVec
	activityEventsTotal   *prometheus.CounterVec
	activityStreamClients prometheus.Gauge
	serviceInfo           *prometheus.GaugeVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		submissionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_transitions_total",
			Help: "Submissions moved into each lifecycle status.",
		}, []string{"status"})

		examPaperTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_paper_transitions_total",
			Help: "Exam papers moved into each lifecycle status.",
		}, []string{"status"})

		activityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_events_total",
			Help: "Activity log entries recorded or relayed, by type.",
		}, []string{"type"})

		activityStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activity_stream_clients",
			Help: "Connected activity stream clients.",
		})

		serviceInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "service_info",
			Help: "Constant 1, labelled with the name of the service exposing the metrics.",
		}, []string{"service"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			submissionTransitions,
			examPaperTransitions,
			activityEventsTotal,
			activityStreamClients,
			serviceInfo,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// SubmissionTransitions counts submission status changes.
func SubmissionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionTransitions
}

// ExamPaperTransitions counts exam paper status changes.
func ExamPaperTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return examPaperTransitions
}

// ActivityEvents counts activity entries.
func ActivityEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return activityEventsTotal
}

// ActivityStreamClients tracks open activity streams.
func ActivityStreamClients() prometheus.Gauge {
	RegisterMetrics()
	return activityStreamClients
}
