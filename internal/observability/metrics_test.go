package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetricsHandler verifies that the /metrics endpoint serves the registered collectors.
func TestMetricsHandler(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	m.TCN.RecordResult("normal")
	m.TCN.RecordModelLoad(nil)
	m.HTTP.RecordHTTPRequest("POST", "/predict", 200, 0.042)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`voicescreen_predictions{label="normal"} 1`,
		`voicescreen_model_loaded 1`,
		`voicescreen_model_load_total{status="success"} 1`,
		`http_requests_total{method="POST",path="/predict",status_code="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// TestRegisterHandlers verifies the ServeMux registration path.
func TestRegisterHandlers(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
