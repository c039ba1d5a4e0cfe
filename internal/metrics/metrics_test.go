package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveLLMCall("anthropic", "ok")
	m.ObserveLLMCall("anthropic", "ok")
	m.ObserveLLMCall("gemini", "rate_limited")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("anthropic", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("gemini", "rate_limited")))

	m.ObserveReport(SourceAPI, nil, 12*time.Second)
	m.ObserveReport(SourceAPI, errors.New("boom"), time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues(SourceAPI, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues(SourceAPI, "error")))

	m.ObserveScanRecord(true)
	m.ObserveScanRecord(false)
	m.ObserveScanRecord(false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.scanRecords.WithLabelValues("false")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveLLMCall("openai", "error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `avp_llm_calls_total{outcome="error",provider="openai"} 1`)
}
