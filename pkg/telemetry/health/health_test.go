package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeQueue int

func (q fakeQueue) Pending() int { return int(q) }

func TestChecker_RegisterAndList(t *testing.T) {
	c := New(0)
	if c.checkTimeout != 5*time.Second {
		t.Errorf("default timeout = %v, want 5s", c.checkTimeout)
	}

	c.RegisterCheck("workers", func(context.Context) error { return nil })
	c.RegisterCheck("database", func(context.Context) error { return nil })
	if got := c.ListChecks(); !reflect.DeepEqual(got, []string{"database", "workers"}) {
		t.Errorf("ListChecks() = %v", got)
	}

	c.UnregisterCheck("workers")
	if got := c.ListChecks(); !reflect.DeepEqual(got, []string{"database"}) {
		t.Errorf("ListChecks() after unregister = %v", got)
	}
}

func TestChecker_CheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"database": DatabaseCheck(fakePinger{}),
				"workers":  WorkerCheck(fakeQueue(1), 10),
			},
			wantStatus: StatusReady,
		},
		{
			name: "database down",
			checks: map[string]CheckFunc{
				"database": DatabaseCheck(fakePinger{err: errors.New("connection refused")}),
				"workers":  WorkerCheck(fakeQueue(0), 10),
			},
			wantStatus: StatusDegraded,
		},
		{
			name: "queue saturated",
			checks: map[string]CheckFunc{
				"workers": WorkerCheck(fakeQueue(10), 10),
			},
			wantStatus: StatusDegraded,
		},
		{
			name: "unbounded queue",
			checks: map[string]CheckFunc{
				"workers": WorkerCheck(fakeQueue(1000), 0),
			},
			wantStatus: StatusReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (%+v)", status.Status, tt.wantStatus, status.Checks)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestChecker_CheckTimeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := c.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("slow check = %+v, want timeout", result)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("database", DatabaseCheck(fakePinger{err: errors.New("sql: database is closed")}))

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		method   string
		wantCode int
	}{
		{"liveness", c.LivenessHandler(), http.MethodGet, http.StatusOK},
		{"liveness head", c.LivenessHandler(), http.MethodHead, http.StatusOK},
		{"readiness degraded", c.ReadinessHandler(), http.MethodGet, http.StatusServiceUnavailable},
		{"version", VersionHandler("1.2.3", "SQLite"), http.MethodGet, http.StatusOK},
		{"post rejected", c.LivenessHandler(), http.MethodPost, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestReadinessHandler_Body(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("database", DatabaseCheck(fakePinger{}))

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != StatusReady || body.Checks["database"].Status != StatusOK {
		t.Errorf("body = %+v", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}
