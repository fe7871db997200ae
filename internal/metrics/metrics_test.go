package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.RecordJoin(JoinAccepted)
	c.RecordJoin(JoinRejected)
	c.RecordJoin(JoinRejected)
	c.RecordMessage(MessagePersisted)
	c.RecordSanitized()
	c.RecordSlowConsumer()
	c.RecordPersistLatency(5 * time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(c.connections))
	require.Equal(t, 1.0, testutil.ToFloat64(c.joins.WithLabelValues(JoinAccepted)))
	require.Equal(t, 2.0, testutil.ToFloat64(c.joins.WithLabelValues(JoinRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.messages.WithLabelValues(MessagePersisted)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.sanitized))
	require.Equal(t, 1.0, testutil.ToFloat64(c.slowConsumers))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordMessage(MessagePersisted)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `roomhub_messages_total{result="persisted"} 1`))
}
