package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	m.IncExtraction(ExtractionOK)
	m.IncWebhook("checkout.session.completed", "ok")
	m.IncEntitlement("grant", true)
	assert.Nil(t, m.Registry())
}

func TestCountersRecord(t *testing.T) {
	m := New()
	m.IncExtraction(ExtractionSalvaged)
	m.IncExtraction(ExtractionSalvaged)
	m.IncWebhook("customer.subscription.deleted", "ok")
	m.ObserveHTTP("POST", "/api/tasks", 201, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(ExtractionSalvaged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("customer.subscription.deleted", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/tasks", "201")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.IncExtraction(ExtractionOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cohost_task_extractions_total")
}
