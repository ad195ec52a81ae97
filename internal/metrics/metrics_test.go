package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountPerLabel(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDocument("identity", "approved")
	m.ObserveDocument("identity", "approved")
	m.ObserveDocument("proof_of_address", "pending_review")
	m.IncrementOverrides("rejected")
	m.IncrementNotificationFailures("document_status")
	m.IncrementFraudSuspected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsProcessed.WithLabelValues("identity", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsProcessed.WithLabelValues("proof_of_address", "pending_review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusOverrides.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationFailures.WithLabelValues("document_status")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FraudSuspected))
}

func TestObserveOCRCountsFailuresOnly(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOCR(200*time.Millisecond, false)
	m.ObserveOCR(30*time.Second, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OCRFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OCRDuration))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
