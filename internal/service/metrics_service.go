package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the pipeline.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	rosterLoads     prometheus.Counter
	facesDetected   prometheus.Counter
	facesRecognized prometheus.Counter

	submissionsTotal prometheus.Counter
	presentRecorded  prometheus.Counter

	notificationsSent   prometheus.Counter
	notificationsFailed prometheus.Counter
}

// NewMetricsService registers the pipeline's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	rosterLoads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_loads_total",
		Help: "Total roster load operations",
	})
	facesDetected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faces_detected_total",
		Help: "Total faces detected in submitted frames",
	})
	facesRecognized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "faces_recognized_total",
		Help: "Total faces matched against a loaded roster",
	})
	submissionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_submissions_total",
		Help: "Total attendance submissions recorded",
	})
	presentRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_present_total",
		Help: "Total present marks recorded",
	})
	notificationsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "absence_notifications_sent_total",
		Help: "Total absence notices delivered",
	})
	notificationsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "absence_notifications_failed_total",
		Help: "Total absence notices that could not be delivered",
	})

	registry.MustRegister(requestDuration, requestTotal, rosterLoads, facesDetected, facesRecognized,
		submissionsTotal, presentRecorded, notificationsSent, notificationsFailed)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		rosterLoads:         rosterLoads,
		facesDetected:       facesDetected,
		facesRecognized:     facesRecognized,
		submissionsTotal:    submissionsTotal,
		presentRecorded:     presentRecorded,
		notificationsSent:   notificationsSent,
		notificationsFailed: notificationsFailed,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one served HTTP request.
func (s *MetricsService) ObserveRequest(method, path, status string, duration time.Duration) {
	s.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, status).Inc()
}

// IncRosterLoad counts one roster load.
func (s *MetricsService) IncRosterLoad() {
	s.rosterLoads.Inc()
}

// ObserveRecognition counts detected and matched faces for one frame.
func (s *MetricsService) ObserveRecognition(detected, recognized int) {
	s.facesDetected.Add(float64(detected))
	s.facesRecognized.Add(float64(recognized))
}

// IncSubmission counts one submission and its present marks.
func (s *MetricsService) IncSubmission(present int) {
	s.submissionsTotal.Inc()
	s.presentRecorded.Add(float64(present))
}

// IncNotificationSent counts one delivered absence notice.
func (s *MetricsService) IncNotificationSent() {
	s.notificationsSent.Inc()
}

// IncNotificationFailed counts one dropped absence notice.
func (s *MetricsService) IncNotificationFailed() {
	s.notificationsFailed.Inc()
}
