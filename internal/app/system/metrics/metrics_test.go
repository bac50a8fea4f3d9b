package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/mansiuk/internal/app/system/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.Transition("request", "open", "published")
	m.Transition("request", "open", "published")
	m.Merged()
	m.Failed("merge_requests", "conflict")
	m.Time("merge_requests")()

	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("request", "open", "published")); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Merges); got != 1 {
		t.Errorf("merges = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Failures.WithLabelValues("merge_requests", "conflict")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.Transition("request", "a", "b")
	m.Merged()
	m.Failed("x", "y")
	m.Time("x")()
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.Merged()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mansiuk_merges_total 1") {
		t.Error("expected merges counter in exposition output")
	}
}
