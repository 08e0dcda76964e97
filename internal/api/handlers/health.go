package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fuelcast/fuelcast-go/internal/telemetry"
)

var startTime = time.Now()

// HealthChecker is any dependency that can report liveness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service and host status.
type HealthHandler struct {
	db      HealthChecker
	redis   HealthChecker
	trainer HealthChecker
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Memory    *MemoryStats      `json:"memory,omitempty"`
}

// MemoryStats is a host memory snapshot.
type MemoryStats struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// NewHealthHandler creates a health handler. Any dependency may be nil and
// is then reported as not configured.
func NewHealthHandler(db, redis, trainer HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, trainer: trainer}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	services := map[string]string{
		"database": checkService(ctx, h.db),
		"redis":    checkService(ctx, h.redis),
		"trainer":  checkService(ctx, h.trainer),
	}

	overall := "healthy"
	for _, status := range services {
		if status != "healthy" {
			overall = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   telemetry.ServiceVersion,
		Uptime:    time.Since(startTime).String(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		response.Memory = &MemoryStats{
			TotalMB:     vm.Total / 1024 / 1024,
			UsedMB:      vm.Used / 1024 / 1024,
			UsedPercent: vm.UsedPercent,
		}
	}

	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

func checkService(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "unhealthy: not configured"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
