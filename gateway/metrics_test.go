package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rest-gateway/gateway"
	"rest-gateway/middleware/ratelimit"
	"rest-gateway/middleware/ratelimit/domain"
	"rest-gateway/resource"
)

func TestMetrics_RecordsDecisions(t *testing.T) {
	m := gateway.NewMetrics()

	require.NoError(t, m.Record(context.Background(), domain.StatsEvent{Allowed: true}))
	require.NoError(t, m.Record(context.Background(), domain.StatsEvent{Reason: domain.ReasonRateExceeded}))
	require.NoError(t, m.Record(context.Background(), domain.StatsEvent{Reason: domain.ReasonRateExceeded}))

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	var series int
	for _, mf := range families {
		if mf.GetName() == "gateway_ratelimit_decisions_total" {
			series = len(mf.GetMetric())
		}
	}
	assert.Equal(t, 2, series) // allowed/none e denied/rate_exceeded
}

func TestMetrics_DispatcherAndAdminEndpoint(t *testing.T) {
	m := gateway.NewMetrics()

	rt := gateway.NewRouteTable()
	require.NoError(t, resource.Register(rt))
	limiter, err := ratelimit.New(ratelimit.Options{
		Enabled:           true,
		MaxRequestsPerSec: 1,
		DelayMs:           ratelimit.DelayReject,
		Stats:             m,
	})
	require.NoError(t, err)

	d, err := gateway.NewDispatcher(gateway.Pipeline{Routes: rt, Limiter: limiter, Metrics: m})
	require.NoError(t, err)

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/hello", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		d.ServeHTTP(httptest.NewRecorder(), req)
	}

	rec := httptest.NewRecorder()
	gateway.NewAdminRouter(gateway.AdminOptions{Metrics: m}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `gateway_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, body, `gateway_requests_total{method="GET",status="429"} 1`)
	assert.Contains(t, body, `gateway_ratelimit_decisions_total{outcome="denied",reason="rate_exceeded"} 1`)
}
