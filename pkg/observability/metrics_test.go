package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	t.Run("creates and registers all metrics", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		metrics := NewMetrics(registry)

		if metrics == nil {
			t.Fatal("NewMetrics returned nil")
		}

		// Verify HTTP metrics are initialized
		if metrics.HTTPRequestsTotal == nil {
			t.Error("HTTPRequestsTotal is nil")
		}
		if metrics.HTTPRequestDuration == nil {
			t.Error("HTTPRequestDuration is nil")
		}
		if metrics.HTTPRequestSize == nil {
			t.Error("HTTPRequestSize is nil")
		}
		if metrics.HTTPResponseSize == nil {
			t.Error("HTTPResponseSize is nil")
		}

		// Verify detection metrics are initialized
		if metrics.DetectionRunsTotal == nil {
			t.Error("DetectionRunsTotal is nil")
		}
		if metrics.DetectionDuration == nil {
			t.Error("DetectionDuration is nil")
		}
		if metrics.BreakingChangesTotal == nil {
			t.Error("BreakingChangesTotal is nil")
		}
		if metrics.ImpactRecordsTotal == nil {
			t.Error("ImpactRecordsTotal is nil")
		}
		if metrics.MigrationGuidesTotal == nil {
			t.Error("MigrationGuidesTotal is nil")
		}

		// Verify cache metrics are initialized
		if metrics.CacheHitsTotal == nil {
			t.Error("CacheHitsTotal is nil")
		}
		if metrics.CacheMissesTotal == nil {
			t.Error("CacheMissesTotal is nil")
		}

		// Verify database and registry metrics are initialized
		if metrics.DBConnectionsActive == nil {
			t.Error("DBConnectionsActive is nil")
		}
		if metrics.DBConnectionsIdle == nil {
			t.Error("DBConnectionsIdle is nil")
		}
		if metrics.ContractsTotal == nil {
			t.Error("ContractsTotal is nil")
		}
		if metrics.ConsumersTotal == nil {
			t.Error("ConsumersTotal is nil")
		}
	})

	t.Run("panics on double registration", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		NewMetrics(registry)

		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic on duplicate registration")
			}
		}()
		NewMetrics(registry)
	})
}

func TestMetrics_HTTPMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/test", "200").Inc()

	expected := `
# HELP contractguard_http_requests_total Total number of HTTP requests
# TYPE contractguard_http_requests_total counter
contractguard_http_requests_total{method="GET",path="/api/test",status="200"} 1
`
	if err := testutil.CollectAndCompare(metrics.HTTPRequestsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric output: %v", err)
	}
}

func TestMetrics_RecordDetectionRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.RecordDetectionRun(3, 6)
	metrics.RecordDetectionRun(0, 0)

	if got := testutil.ToFloat64(metrics.DetectionRunsTotal); got != 2 {
		t.Errorf("DetectionRunsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.ImpactRecordsTotal); got != 6 {
		t.Errorf("ImpactRecordsTotal = %v, want 6", got)
	}
	if got := testutil.ToFloat64(metrics.MigrationGuidesTotal); got != 3 {
		t.Errorf("MigrationGuidesTotal = %v, want 3", got)
	}
}

func TestMetrics_RecordBreakingChange(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.RecordBreakingChange("CRITICAL")
	metrics.RecordBreakingChange("CRITICAL")
	metrics.RecordBreakingChange("HIGH")

	expected := `
# HELP contractguard_breaking_changes_total Total number of breaking changes detected
# TYPE contractguard_breaking_changes_total counter
contractguard_breaking_changes_total{severity="CRITICAL"} 2
contractguard_breaking_changes_total{severity="HIGH"} 1
`
	if err := testutil.CollectAndCompare(metrics.BreakingChangesTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric output: %v", err)
	}
}

func TestMetrics_CacheMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.CacheHitsTotal.WithLabelValues("detection_report").Inc()
	metrics.CacheMissesTotal.WithLabelValues("detection_report").Inc()
	metrics.CacheMissesTotal.WithLabelValues("impact_report").Inc()

	if got := testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("detection_report")); got != 1 {
		t.Errorf("CacheHitsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMissesTotal.WithLabelValues("impact_report")); got != 1 {
		t.Errorf("CacheMissesTotal = %v, want 1", got)
	}
}

func TestMetrics_GaugeMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.DBConnectionsActive.Set(11)
	metrics.DBConnectionsIdle.Set(4)
	metrics.ContractsTotal.Set(25)
	metrics.ConsumersTotal.Set(140)

	if got := testutil.ToFloat64(metrics.DBConnectionsActive); got != 11 {
		t.Errorf("DBConnectionsActive = %v, want 11", got)
	}
	if got := testutil.ToFloat64(metrics.ContractsTotal); got != 25 {
		t.Errorf("ContractsTotal = %v, want 25", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "1"}`))
	}))

	req := httptest.NewRequest("POST", "/api/v1/contracts", strings.NewReader(`{"name": "orders"}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/contracts", "201")); got != 1 {
		t.Errorf("HTTPRequestsTotal = %v, want 1", got)
	}
	if count := testutil.CollectAndCount(metrics.HTTPRequestDuration); count == 0 {
		t.Error("Expected request duration to be observed")
	}
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.RecordBreakingChange("CRITICAL")

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "contractguard_breaking_changes_total") {
		t.Error("Expected metrics output to include breaking changes counter")
	}
}
