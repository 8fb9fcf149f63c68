package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"admissionsdash/internal/infrastructure"
	"admissionsdash/pkg/contracts"
)

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version   contracts.VersionInfo
	data      ReadinessChecker
	runtime   *infrastructure.RuntimeCollector
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. data is checked by the
// readiness probe; rc may be nil.
func NewHealthService(data ReadinessChecker, rc *infrastructure.RuntimeCollector, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:   contracts.GetVersionInfo(),
		data:      data,
		runtime:   rc,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}
}

// ReadinessCheck returns readiness status; ready means the admissions table
// loads.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services:  map[string]ServiceHealth{"data": hs.checkDataHealth(ctx)},
	}

	for _, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	rt := map[string]interface{}{
		"uptime":     time.Since(hs.startTime).Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hs.runtime != nil {
		stats := hs.runtime.Stats(ctx)
		rt["heap_alloc_bytes"] = stats.HeapAlloc
		rt["gc_count"] = stats.GCCount
	}

	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime:   rt,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version.Version,
		"build_time":   hs.version.BuildTime,
		"git_commit":   hs.version.GitCommit,
		"go_version":   hs.version.GoVersion,
		"os":           hs.version.OS,
		"arch":         hs.version.Architecture,
		"data_format":  hs.version.DataFormat,
		"api_version":  hs.version.APIVersion,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// checkDataHealth checks that the admissions input can be loaded
func (hs *HealthService) checkDataHealth(ctx context.Context) ServiceHealth {
	if hs.data == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "admissions service not initialized",
		}
	}

	if err := hs.data.Ready(ctx); err != nil {
		infrastructure.WithError(hs.logger, err).WarnContext(ctx, "data not ready")
		return ServiceHealth{
			Status:  "not_ready",
			Message: err.Error(),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "admissions table loaded",
	}
}
