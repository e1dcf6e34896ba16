package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/sync-jira-status", "POST", 200, time.Millisecond)
	m.RecordRequest("/sync-jira-status", "POST", 200, time.Millisecond)
	m.RecordError("/jira/bulk-resolve", "POST", "FORBIDDEN")
	m.RecordSync("bulk_resolve", 4, 1)

	snap := m.Snapshot()
	if snap.Requests["/sync-jira-status|POST|200"] != 2 {
		t.Fatalf("requests = %v", snap.Requests)
	}
	if snap.Errors["/jira/bulk-resolve|POST|FORBIDDEN"] != 1 {
		t.Fatalf("errors = %v", snap.Errors)
	}
	if snap.Sync["bulk_resolve|ok"] != 4 || snap.Sync["bulk_resolve|failed"] != 1 || snap.Sync["bulk_resolve|runs"] != 1 {
		t.Fatalf("sync = %v", snap.Sync)
	}

	snap.Requests["/sync-jira-status|POST|200"] = 99
	if m.Snapshot().Requests["/sync-jira-status|POST|200"] != 2 {
		t.Fatal("snapshot must be a copy")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordSync("x", 1, 1)
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Fatalf("snapshot = %+v", snap)
	}
}
