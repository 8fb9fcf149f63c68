package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissionsdash/internal/config"
	"admissionsdash/internal/shared/testutil"
)

func testConfig(t *testing.T, inputPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Data.InputPath = inputPath
	return cfg
}

func newTestApplication(t *testing.T) (*Application, *testutil.BufferedSlogHandler) {
	t.Helper()
	path := testutil.WriteAdmissionsCSV(t, t.TempDir())
	logger, logs := testutil.NewTestLogger(t)

	application, err := NewApplication(testConfig(t, path), logger)
	require.NoError(t, err)
	return application, logs
}

func request(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewApplication(nil, nil)
		require.Error(t, err)
	})

	t.Run("wires services and server", func(t *testing.T) {
		application, _ := newTestApplication(t)

		require.NotNil(t, application.Services)
		assert.NotNil(t, application.Services.Admissions)
		assert.NotNil(t, application.Services.Health)
		assert.NotNil(t, application.Services.Exporter)
		assert.NotNil(t, application.Metrics)
		assert.NotNil(t, application.Runtime)
		assert.Equal(t, ":0", application.Server.Addr)
		assert.Equal(t, application.Router, application.Server.Handler)
	})
}

func TestApplicationRoutes(t *testing.T) {
	application, _ := newTestApplication(t)

	tests := []struct {
		name           string
		method         string
		target         string
		expectedStatus int
		expectedBody   string
	}{
		{name: "health", method: http.MethodGet, target: "/api/health", expectedStatus: http.StatusOK, expectedBody: `"status":"ok"`},
		{name: "ready", method: http.MethodGet, target: "/api/health/ready", expectedStatus: http.StatusOK, expectedBody: `"status":"ready"`},
		{name: "live", method: http.MethodGet, target: "/api/health/live", expectedStatus: http.StatusOK, expectedBody: `"status":"alive"`},
		{name: "version", method: http.MethodGet, target: "/api/version", expectedStatus: http.StatusOK, expectedBody: `"api_version":"v1"`},
		{name: "options", method: http.MethodGet, target: "/api/admissions/options", expectedStatus: http.StatusOK, expectedBody: "함창중"},
		{name: "records", method: http.MethodGet, target: "/api/admissions/records", expectedStatus: http.StatusOK, expectedBody: `"count":8`},
		{name: "invalid filter", method: http.MethodGet, target: "/api/admissions/records?year_min=abc", expectedStatus: http.StatusBadRequest, expectedBody: "/errors/validation"},
		{name: "schema", method: http.MethodGet, target: "/api/admissions/schema", expectedStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", expectedStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, target: "/api/health", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, application.Router, tt.method, tt.target, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestApplicationMiddleware(t *testing.T) {
	application, _ := newTestApplication(t)

	t.Run("request id and security headers", func(t *testing.T) {
		rec := request(t, application.Router, http.MethodGet, "/api/health", nil)

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("cors allowed origin", func(t *testing.T) {
		rec := request(t, application.Router, http.MethodGet, "/api/health", http.Header{
			"Origin": []string{"http://localhost:8080"},
		})
		assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("cors foreign origin", func(t *testing.T) {
		rec := request(t, application.Router, http.MethodGet, "/api/health", http.Header{
			"Origin": []string{"http://evil.example"},
		})
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("export download", func(t *testing.T) {
		query := url.Values{"track": {"교과"}, "department": {"공학/이공계열"}}
		rec := request(t, application.Router, http.MethodGet, "/api/admissions/export.csv?"+query.Encode(), nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "admission_results_filtered.csv")
	})

	t.Run("export download with unknown track", func(t *testing.T) {
		query := url.Values{"track": {"공학"}}
		rec := request(t, application.Router, http.MethodGet, "/api/admissions/export.csv?"+query.Encode(), nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "/errors/validation")
		assert.Contains(t, rec.Body.String(), "track")
		assert.Empty(t, rec.Header().Get("Content-Disposition"))
	})
}

func TestApplicationRateLimit(t *testing.T) {
	path := testutil.WriteAdmissionsCSV(t, t.TempDir())
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t, path)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}

	application, err := NewApplication(cfg, logger)
	require.NoError(t, err)

	first := request(t, application.Router, http.MethodGet, "/api/health", nil)
	second := request(t, application.Router, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestApplicationReadinessWithoutData(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	application, err := NewApplication(testConfig(t, filepath.Join(t.TempDir(), "missing.csv")), logger)
	require.NoError(t, err)

	rec := request(t, application.Router, http.MethodGet, "/api/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = request(t, application.Router, http.MethodGet, "/api/admissions/records", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/data/unavailable")
}

func TestApplicationServe(t *testing.T) {
	application, logs := newTestApplication(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Serve(ctx, ln)
	}()

	target := fmt.Sprintf("http://%s/api/admissions/universities", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(target)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(target)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Contains(t, body, "data")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	assert.True(t, logs.ContainsMessage("Application shutdown complete"))
	assert.Eventually(t, func() bool {
		return logs.ContainsMessage("admissions table warmed up")
	}, time.Second, 10*time.Millisecond)

	_, err = http.Get(target)
	assert.Error(t, err, "server should be closed")
}
