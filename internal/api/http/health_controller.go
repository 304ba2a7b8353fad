package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ozzus/agent-watch/internal/domain"
)

const version = "1.0.0"

// StatusSource is satisfied by service.MonitorService.
type StatusSource interface {
	LastReport() (domain.Report, bool)
	IsRunning() bool
	GetStatus() map[string]interface{}
}

type HealthController struct {
	monitor StatusSource
	agentID string
	now     func() time.Time
}

func NewHealthController(monitor StatusSource, agentID string) *HealthController {
	return &HealthController{
		monitor: monitor,
		agentID: agentID,
		now:     time.Now,
	}
}

// Health отражает вердикт последнего цикла проверок
func (h *HealthController) Health(c *gin.Context) {
	report, ok := h.monitor.LastReport()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, domain.HealthResponse{
			Status:    domain.HealthStatusPending,
			Timestamp: h.now(),
			AgentID:   h.agentID,
			Message:   "no check cycle completed yet",
		})
		return
	}

	resp := domain.DetailedHealthResponse{
		Status:     domain.HealthStatusHealthy,
		Timestamp:  h.now(),
		AgentID:    h.agentID,
		ReportID:   report.ID,
		CheckedAt:  &report.FinishedAt,
		Components: components(report),
		Version:    version,
	}

	if !report.Healthy {
		resp.Status = domain.HealthStatusUnhealthy
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Status отдаёт состояние сервиса и последний отчёт
func (h *HealthController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.GetStatus())
}

// Ready проверяет, что цикл мониторинга запущен
func (h *HealthController) Ready(c *gin.Context) {
	if !h.monitor.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"agent":     h.agentID,
			"message":   "monitor loop is not running",
			"timestamp": h.now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"agent":     h.agentID,
		"message":   "monitor loop is running",
		"timestamp": h.now(),
	})
}

func components(report domain.Report) []domain.ComponentHealth {
	out := make([]domain.ComponentHealth, 0, len(report.Results))
	for _, res := range report.Results {
		out = append(out, domain.ComponentHealth{
			Name:    string(res.Type),
			Status:  string(res.Status),
			Reason:  res.Reason,
			Message: res.Error,
		})
	}
	return out
}
