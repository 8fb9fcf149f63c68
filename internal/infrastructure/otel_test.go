package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"

	"admissionsdash/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewOTelConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")

	cfg := NewOTelConfig(config.TelemetryConfig{
		ServiceName:    "admissions-dashboard",
		TraceExporter:  "stdout",
		MetricsEnabled: true,
	})
	assert.Equal(t, "admissions-dashboard", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "development", cfg.Environment)
	assert.NotEmpty(t, cfg.ServiceVersion)

	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, "production", NewOTelConfig(config.TelemetryConfig{}).Environment)
}

func TestOTelInitialization(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *OTelConfig
		wantTracer  bool
		wantMetrics bool
		wantErr     bool
	}{
		{name: "defaults", cfg: nil, wantMetrics: true},
		{name: "stdout tracing", cfg: &OTelConfig{ServiceName: "t", TraceExporter: "stdout", SampleRatio: 1}, wantTracer: true},
		{name: "everything off", cfg: &OTelConfig{ServiceName: "t", TraceExporter: "none"}},
		{name: "unknown exporter", cfg: &OTelConfig{ServiceName: "t", TraceExporter: "zipkin"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, discardLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, providers)

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantTracer, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, providers.Shutdown(ctx))
		})
	}
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "t", TraceExporter: "stdout", SampleRatio: 1}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "load-table")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	AddSpanEvent(ctx, "table.loaded", attribute.Int("rows", 8))
	RecordError(ctx, errors.New("boom"))
	assert.True(t, span.IsRecording())

	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "ignored")
		RecordError(context.Background(), errors.New("ignored"))
	})
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "t", TraceExporter: "none", EnableMetrics: true}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordTableLoad(ctx, metrics, "utf-8-sig", 8, 20*time.Millisecond, nil)
	RecordTableLoad(ctx, metrics, "euc-kr", 0, time.Millisecond, errors.New("undecodable"))
	RecordCacheLookup(ctx, metrics, true)
	RecordCacheLookup(ctx, metrics, false)
	RecordQuery(ctx, metrics, "university_counts")

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"admissions_table_loads_total",
		"admissions_table_rows",
		"admissions_cache_hits_total",
		"admissions_cache_misses_total",
		"admissions_queries_total",
	} {
		assert.Contains(t, string(body), name)
	}
	assert.Contains(t, string(body), `status="failure"`)
}

func TestRecordHelpersNilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordTableLoad(ctx, nil, "utf-8", 1, time.Second, nil)
		RecordCacheLookup(ctx, nil, true)
		RecordQuery(ctx, nil, "records")
	})
}

func TestRuntimeCollector(t *testing.T) {
	collector, err := NewRuntimeCollector(noop.NewMeterProvider().Meter("test"), 0)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, collector.interval)

	stats := collector.Stats(context.Background())
	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.CPUCount)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, collector.Run(ctx))
}

func BenchmarkRecordTableLoad(b *testing.B) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "b", TraceExporter: "none", EnableMetrics: true}, discardLogger())
	require.NoError(b, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(b, err)

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordTableLoad(ctx, metrics, "utf-8", 8, time.Millisecond, nil)
	}
}
