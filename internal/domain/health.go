package domain

import "time"

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusPending   HealthStatus = "pending"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	AgentID   string       `json:"agent_id"`
	Message   string       `json:"message,omitempty"`
}

// ComponentHealth статус одной проверки из последнего отчёта
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	Reason  FailureReason `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
}

// DetailedHealthResponse детальный ответ о здоровье
type DetailedHealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	AgentID    string            `json:"agent_id"`
	ReportID   string            `json:"report_id,omitempty"`
	CheckedAt  *time.Time        `json:"checked_at,omitempty"`
	Components []ComponentHealth `json:"components"`
	Version    string            `json:"version"`
}
