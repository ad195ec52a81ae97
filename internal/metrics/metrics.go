package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the verification pipeline.
type Metrics struct {
	DocumentsProcessed   *prometheus.CounterVec
	OCRDuration          prometheus.Histogram
	OCRFailures          prometheus.Counter
	FraudSuspected       prometheus.Counter
	StatusOverrides      *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agro_kyc_documents_processed_total",
			Help: "Total number of submitted documents, labeled by type and resolved status",
		}, []string{"document_type", "status"}),
		OCRDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agro_kyc_ocr_duration_seconds",
			Help:    "Duration of preprocessing plus text extraction in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		OCRFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "agro_kyc_ocr_failures_total",
			Help: "Total number of extractions that degraded to empty text",
		}),
		FraudSuspected: factory.NewCounter(prometheus.CounterOpts{
			Name: "agro_kyc_fraud_suspected_total",
			Help: "Total number of documents flagged by fraud heuristics",
		}),
		StatusOverrides: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agro_kyc_status_overrides_total",
			Help: "Total number of manual review decisions, labeled by new status",
		}, []string{"status"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agro_kyc_notification_failures_total",
			Help: "Total number of notifications that could not be delivered, labeled by template",
		}, []string{"template_id"}),
	}
}

func (m *Metrics) ObserveDocument(docType, status string) {
	m.DocumentsProcessed.WithLabelValues(docType, status).Inc()
}

func (m *Metrics) ObserveOCR(duration time.Duration, failed bool) {
	m.OCRDuration.Observe(duration.Seconds())
	if failed {
		m.OCRFailures.Inc()
	}
}

func (m *Metrics) IncrementFraudSuspected() {
	m.FraudSuspected.Inc()
}

func (m *Metrics) IncrementOverrides(status string) {
	m.StatusOverrides.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementNotificationFailures(templateID string) {
	m.NotificationFailures.WithLabelValues(templateID).Inc()
}
