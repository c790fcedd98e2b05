package http

import (
	"net/http"
	"os"
	"time"

	"pairchat/contract"
	"pairchat/observability"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"
)

type MonitorHandler struct {
	registry contract.IRegistry
	stats    *observability.Stats
	started  time.Time
}

func NewMonitorHandler(registry contract.IRegistry, stats *observability.Stats) *MonitorHandler {
	return &MonitorHandler{
		registry: registry,
		stats:    stats,
		started:  time.Now(),
	}
}

// Report answers with process health and relay counters. Unavailable process
// metrics degrade to zero values instead of failing the whole report.
func (h *MonitorHandler) Report(c *gin.Context) {
	var (
		cpu    float64
		ram    float32
		status string
	)
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		cpu, _ = p.CPUPercent()
		ram, _ = p.MemoryPercent()
		status, _ = p.Status()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"onlineUsers":   h.registry.Count(),
		"cpuPercent":    cpu,
		"memoryPercent": ram,
		"processStatus": status,
		"relayCounters": h.stats.Snapshot(),
	})
}
