package metrics

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

func testConfig() Config {
	return Config{Enabled: true, Namespace: "test"}
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(testConfig(), registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if collector.config.Namespace != "test" {
		t.Errorf("Namespace = %q, want test", collector.config.Namespace)
	}
	if len(collector.config.DurationBuckets) == 0 {
		t.Error("default duration buckets not applied")
	}

	defaulted := NewCollector(Config{}, nil)
	if defaulted.config.Namespace != "altdetector" {
		t.Errorf("default Namespace = %q", defaulted.config.Namespace)
	}
}

func TestCollector_ObserveOperation(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveOperation(altdetect.BackendNameSQLite, "record_sighting", time.Millisecond, nil)
	collector.ObserveOperation(altdetect.BackendNameSQLite, "record_sighting", time.Millisecond, nil)
	collector.ObserveOperation(altdetect.BackendNameSQLite, "record_sighting", time.Millisecond, errors.New("disk I/O error"))
	collector.ObserveOperation(altdetect.BackendNameSQLite, "lookup_by_name", time.Millisecond, altdetect.ErrNotFound)
	collector.ObserveOperation(altdetect.BackendNameSQLite, "upsert_identity", time.Millisecond,
		altdetect.NewStorageError(altdetect.BackendNameSQLite, "upsert_identity", altdetect.NewInvalidArgumentError("name", "must not be empty")))

	ops := collector.storage.operationsTotal
	tests := []struct {
		operation, status string
		want              float64
	}{
		{"record_sighting", "success", 2},
		{"record_sighting", "error", 1},
		{"lookup_by_name", "not_found", 1},
		{"upsert_identity", "invalid", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(ops.WithLabelValues(altdetect.BackendNameSQLite, tt.operation, tt.status))
		if got != tt.want {
			t.Errorf("operations_total{%s,%s} = %v, want %v", tt.operation, tt.status, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(collector.storage.operationDuration); n != 3 {
		t.Errorf("duration series = %d, want 3", n)
	}
}

func TestCollector_PurgesAndNames(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObservePurge(altdetect.BackendNameMySQL, "sightings", 5)
	collector.ObservePurge(altdetect.BackendNameMySQL, "sightings", 0)
	collector.ObservePurge(altdetect.BackendNameMySQL, "identities", 2)
	collector.SetKnownNames(altdetect.BackendNameMySQL, 42)

	if got := testutil.ToFloat64(collector.storage.purgedTotal.WithLabelValues(altdetect.BackendNameMySQL, "sightings")); got != 5 {
		t.Errorf("purged sightings = %v, want 5", got)
	}
	if got := testutil.ToFloat64(collector.storage.purgedTotal.WithLabelValues(altdetect.BackendNameMySQL, "identities")); got != 2 {
		t.Errorf("purged identities = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.storage.knownNames.WithLabelValues(altdetect.BackendNameMySQL)); got != 42 {
		t.Errorf("known names = %v, want 42", got)
	}
}

func TestCollector_Retention(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.SetRetention(45)
	if got := testutil.ToFloat64(collector.retention.days); got != 45 {
		t.Errorf("retention days = %v, want 45", got)
	}
	if got := testutil.ToFloat64(collector.retention.window.WithLabelValues("31-60")); got != 1 {
		t.Errorf("bucket 31-60 = %v, want 1", got)
	}

	collector.SetRetention(0)
	if got := testutil.ToFloat64(collector.retention.window.WithLabelValues("31-60")); got != 0 {
		t.Errorf("bucket 31-60 = %v after change, want 0", got)
	}
	if got := testutil.ToFloat64(collector.retention.window.WithLabelValues("0")); got != 1 {
		t.Errorf("bucket 0 = %v, want 1", got)
	}

	collector.RecordPrune("startup", 7, nil)
	collector.RecordPrune("schedule", 0, errors.New("locked"))
	if got := testutil.ToFloat64(collector.retention.prunedSighting.WithLabelValues("startup")); got != 7 {
		t.Errorf("pruned sightings = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.retention.prunesTotal.WithLabelValues("schedule", "error")); got != 1 {
		t.Errorf("failed prunes = %v, want 1", got)
	}
}

type fakePool struct {
	pending   int
	inFlight  int64
	completed int64
}

func (p *fakePool) Pending() int     { return p.pending }
func (p *fakePool) InFlight() int64  { return p.inFlight }
func (p *fakePool) Completed() int64 { return p.completed }

func TestCollector_PoolAndJoins(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	pool := &fakePool{pending: 3, inFlight: 2, completed: 10}
	collector.RegisterPool(pool)
	collector.RecordJoin("alts")
	collector.RecordJoin("clean")
	collector.RecordJoin("clean")

	expected := `
# HELP test_workers_queue_depth Tasks waiting for a worker
# TYPE test_workers_queue_depth gauge
test_workers_queue_depth 3
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_workers_queue_depth"); err != nil {
		t.Error(err)
	}

	pool.pending = 0
	expected = `
# HELP test_workers_queue_depth Tasks waiting for a worker
# TYPE test_workers_queue_depth gauge
test_workers_queue_depth 0
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "test_workers_queue_depth"); err != nil {
		t.Error(err)
	}

	if got := testutil.ToFloat64(collector.workers.joinsTotal.WithLabelValues("clean")); got != 2 {
		t.Errorf("clean joins = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	collector := NewCollector(Config{Enabled: false, Namespace: "off"}, nil)

	collector.ObserveOperation(altdetect.BackendNameSQLite, "ping", time.Millisecond, nil)
	collector.SetKnownNames(altdetect.BackendNameSQLite, 5)
	collector.RegisterPool(&fakePool{})
	if err := collector.RegisterDB(&sql.DB{}, "sqlite"); err != nil {
		t.Errorf("RegisterDB() on disabled collector = %v", err)
	}

	if n := testutil.CollectAndCount(collector.storage.operationsTotal); n != 0 {
		t.Errorf("disabled collector recorded %d series", n)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.SetKnownNames(altdetect.BackendNameSQLite, 1)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	want := fmt.Sprintf(`test_storage_known_names{backend=%q} 1`, altdetect.BackendNameSQLite)
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %q", want)
	}
}
