package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegistryCountsPipelineEvents(t *testing.T) {
	reg := NewRegistry()

	reg.WordPublished()
	reg.WordPublished()
	reg.WordPersisted()
	reg.MessageSkipped()
	reg.PageServed(3)
	reg.PageServed(0)

	require.Equal(t, 2.0, testutil.ToFloat64(reg.published))
	require.Equal(t, 1.0, testutil.ToFloat64(reg.persisted))
	require.Equal(t, 1.0, testutil.ToFloat64(reg.skipped))
	require.Equal(t, 2.0, testutil.ToFloat64(reg.pagesServed))
	require.Equal(t, 3.0, testutil.ToFloat64(reg.rowsServed))
}

func TestRegistryObservesRequestsByRouteAndStatus(t *testing.T) {
	reg := NewRegistry()

	reg.ObserveHTTPRequest("/api/words", http.StatusOK, 10*time.Millisecond)
	reg.ObserveHTTPRequest("/api/words", http.StatusBadRequest, time.Millisecond)

	require.Equal(t, 2, testutil.CollectAndCount(reg.requestLatency, "ccdemo_http_request_duration_seconds"))
}

func TestHandlerExposesNamespacedMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.WordPersisted()

	rr := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.True(t, strings.Contains(body, "ccdemo_words_persisted_total 1"), body)
	require.True(t, strings.Contains(body, "go_goroutines"), body)
}
