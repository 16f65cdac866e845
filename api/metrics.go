package api

import (
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates request metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MinTime     time.Duration `json:"minTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsCollector collects and aggregates per-route request metrics
type MetricsCollector struct {
	mu            sync.RWMutex
	routeMetrics  map[string]*RouteMetrics
	windowStart   time.Time
	totalRequests int64
	totalErrors   int64
}

var globalMetrics *MetricsCollector
var globalMetricsOnce sync.Once

// GetMetrics returns the global metrics collector
func GetMetrics() *MetricsCollector {
	globalMetricsOnce.Do(func() {
		globalMetrics = &MetricsCollector{
			routeMetrics: make(map[string]*RouteMetrics),
			windowStart:  time.Now(),
		}
	})
	return globalMetrics
}

// Record folds a completed request into the per-route aggregates
func (mc *MetricsCollector) Record(method, path string, status int, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	routeKey := method + " " + path
	metrics, exists := mc.routeMetrics[routeKey]
	if !exists {
		metrics = &RouteMetrics{
			Method:  method,
			Path:    path,
			MinTime: duration,
		}
		mc.routeMetrics[routeKey] = metrics
	}

	metrics.Count++
	metrics.TotalTime += duration
	metrics.AvgTime = metrics.TotalTime / time.Duration(metrics.Count)
	metrics.LastRequest = time.Now()

	if duration < metrics.MinTime {
		metrics.MinTime = duration
	}
	if duration > metrics.MaxTime {
		metrics.MaxTime = duration
	}

	mc.totalRequests++
	if status >= 400 {
		metrics.ErrorCount++
		mc.totalErrors++
	}
}

// GetRouteMetrics returns a snapshot of all route aggregates sorted by
// request count, busiest first
func (mc *MetricsCollector) GetRouteMetrics() []*RouteMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	routes := make([]*RouteMetrics, 0, len(mc.routeMetrics))
	for _, v := range mc.routeMetrics {
		metrics := *v
		routes = append(routes, &metrics)
	}
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Count > routes[j].Count
	})
	return routes
}

// GetSummary returns overall summary metrics
func (mc *MetricsCollector) GetSummary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	var errorRate float64
	if mc.totalRequests > 0 {
		errorRate = float64(mc.totalErrors) / float64(mc.totalRequests)
	}

	var rps float64
	if elapsed := time.Since(mc.windowStart).Seconds(); elapsed > 0 {
		rps = float64(mc.totalRequests) / elapsed
	}

	return map[string]interface{}{
		"totalRequests": mc.totalRequests,
		"totalErrors":   mc.totalErrors,
		"errorRate":     errorRate,
		"rps":           rps,
		"windowStart":   mc.windowStart,
		"routeCount":    len(mc.routeMetrics),
	}
}
