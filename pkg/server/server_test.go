package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/detector"
	"github.com/Bobcat00/AltDetector/pkg/altdetect/storage"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/health"
	"github.com/Bobcat00/AltDetector/pkg/telemetry/metrics"
)

const (
	aliceID = "00000000-0000-0000-0000-00000000000a"
	bobID   = "00000000-0000-0000-0000-00000000000b"
)

func newTestServer(t *testing.T) (*Server, *storage.Engine) {
	t.Helper()

	engine, err := storage.New(&storage.Config{
		Backend: storage.BackendSQLite,
		SQLite: &storage.SQLiteConfig{
			Path:        filepath.Join(t.TempDir(), "admin.db"),
			Driver:      storage.DriverModernc,
			BusyTimeout: 5 * time.Second,
		},
	})
	require.NoError(t, err)
	require.NoError(t, engine.Initialize(context.Background()))
	t.Cleanup(func() { engine.Close() })

	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
	engine.SetObserver(collector)

	checker := health.New(time.Second)
	checker.RegisterCheck("database", health.DatabaseCheck(engine))

	templates := altdetect.Templates{Player: "{0} may be an alt of ", PlayerList: "{0}", Separator: ", "}
	det := detector.New(engine, detector.Config{
		Window: 24 * time.Hour,
		Join:   altdetect.JoinMessages{Templates: templates},
		Command: altdetect.CommandMessages{
			Templates:      templates,
			PlayerNoAlts:   "{0} has no known alts",
			PlayerNotFound: "{0} not found",
		},
	}, nil)

	srv := New(Config{ListenAddress: "127.0.0.1:0"}, Deps{
		Store:    engine,
		Detector: det,
		Checker:  checker,
		Metrics:  collector,
		Version:  "test",
	}, nil)
	return srv, engine
}

func seed(t *testing.T, engine *storage.Engine) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []struct{ name, id string }{{"Alice", aliceID}, {"Bob", bobID}} {
		require.NoError(t, engine.UpsertIdentity(ctx, p.name, p.id))
		require.NoError(t, engine.RecordSighting(ctx, "192.0.2.1", p.id))
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAltsEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seed(t, engine)
	h := srv.Handler()

	rec := get(t, h, "/v1/alts/alice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report detector.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.True(t, report.Found)
	assert.Equal(t, "Alice", report.Name)
	assert.Equal(t, aliceID, report.StableID)
	assert.Equal(t, []string{"Bob"}, report.Alts)
	assert.Equal(t, "Alice may be an alt of Bob", report.Message)
}

func TestAltsEndpointNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/v1/alts/nobody")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var report detector.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.False(t, report.Found)
	assert.Equal(t, "nobody not found", report.Message)
	assert.Empty(t, report.Alts)
}

func TestNamesEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seed(t, engine)
	h := srv.Handler()

	var body namesResponse
	rec := get(t, h, "/v1/names")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"alice", "bob"}, body.Names)

	rec = get(t, h, "/v1/names?prefix=AL")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "AL", body.Prefix)
	assert.Equal(t, []string{"alice"}, body.Names)

	rec = get(t, h, "/v1/names?prefix=zz")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotNil(t, body.Names)
	assert.Empty(t, body.Names)
}

func TestProbesAndVersion(t *testing.T) {
	srv, engine := newTestServer(t)
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/ready").Code)

	rec := get(t, h, "/version")
	require.Equal(t, http.StatusOK, rec.Code)
	var info health.VersionInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "test", info.Version)
	assert.Equal(t, altdetect.BackendNameSQLite, info.Backend)

	require.NoError(t, engine.Close())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/ready").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seed(t, engine)

	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "altdetector_storage_operations_total")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/v1/names", "/v1/alts/alice", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := get(t, h, "/health")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	srv := New(Config{}, Deps{}, nil)
	h := recovery(srv.logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "internal error"))
}

func TestStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", srv.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Error(t, srv.Start(context.Background()), "second start must fail")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, srv.IsRunning())
}

func TestStartListenError(t *testing.T) {
	srv := New(Config{ListenAddress: "256.0.0.1:bad"}, Deps{}, nil)
	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.False(t, srv.IsRunning())
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}
