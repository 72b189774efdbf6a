package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/progress", "200", time.Millisecond)
	m.IncSyncEntry("merged")
	m.IncStoreConflict("Progress.Store.UpsertRecord")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	if got := m.SyncEntryCount("merged"); got != 0 {
		t.Fatalf("nil count: got=%v", got)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/progress/sync", "200", 30*time.Millisecond)
	m.IncSyncEntry("merged")
	m.IncSyncEntry("merged")
	m.IncSyncEntry("failed")
	m.IncTimeSpentAnomaly("reinterpreted_seconds")
	m.ApiInflightInc()

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`# TYPE ls_api_requests_total counter`,
		`ls_api_requests_total{method="POST",route="/api/progress/sync",status="200"} 1`,
		`ls_api_request_duration_seconds_bucket{method="POST",route="/api/progress/sync",status="200",le="0.05"} 1`,
		`ls_sync_entries_total{outcome="merged"} 2`,
		`ls_time_spent_anomalies_total{resolution="reinterpreted_seconds"} 1`,
		`ls_api_inflight_requests 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, out)
		}
	}
	if got := m.SyncEntryCount("failed"); got != 1 {
		t.Fatalf("failed count: want=1 got=%v", got)
	}
}

func TestLabelString(t *testing.T) {
	if got := labelString([]string{"a", "b"}, []string{`x"y`}); got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: got=%s", got)
	}
	if got := withLe("", "+Inf"); got != `{le="+Inf"}` {
		t.Fatalf("withLe: got=%s", got)
	}
}
