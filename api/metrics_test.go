package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCollector() *MetricsCollector {
	return &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now(),
	}
}

func TestMetricsCollector_Record(t *testing.T) {
	mc := newTestCollector()

	mc.Record("GET", "/api/v1/posts", 200, 10*time.Millisecond)
	mc.Record("GET", "/api/v1/posts", 200, 30*time.Millisecond)
	mc.Record("GET", "/api/v1/posts", 500, 20*time.Millisecond)

	routes := mc.GetRouteMetrics()
	assert.Len(t, routes, 1)
	assert.Equal(t, int64(3), routes[0].Count)
	assert.Equal(t, int64(1), routes[0].ErrorCount)
	assert.Equal(t, 10*time.Millisecond, routes[0].MinTime)
	assert.Equal(t, 30*time.Millisecond, routes[0].MaxTime)
	assert.Equal(t, 20*time.Millisecond, routes[0].AvgTime)
}

func TestMetricsCollector_RouteOrdering(t *testing.T) {
	mc := newTestCollector()

	mc.Record("GET", "/api/v1/guides", 200, time.Millisecond)
	mc.Record("POST", "/api/v1/reports", 201, time.Millisecond)
	mc.Record("POST", "/api/v1/reports", 201, time.Millisecond)

	routes := mc.GetRouteMetrics()
	assert.Len(t, routes, 2)
	assert.Equal(t, "/api/v1/reports", routes[0].Path)
	assert.Equal(t, "/api/v1/guides", routes[1].Path)
}

func TestMetricsCollector_Summary(t *testing.T) {
	mc := newTestCollector()

	mc.Record("GET", "/api/v1/posts", 200, time.Millisecond)
	mc.Record("GET", "/api/v1/posts", 404, time.Millisecond)

	summary := mc.GetSummary()
	assert.Equal(t, int64(2), summary["totalRequests"])
	assert.Equal(t, int64(1), summary["totalErrors"])
	assert.Equal(t, 0.5, summary["errorRate"])
	assert.Equal(t, 1, summary["routeCount"])
}

func TestGetMetricsSingleton(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}
