package checks

import (
	"log/slog"
	"time"

	"ozzus/agent-watch/internal/domain"
)

func success(t domain.CheckType, details map[string]interface{}) domain.CheckResult {
	return domain.CheckResult{
		Type:    t,
		Status:  domain.StatusSuccess,
		Details: details,
	}
}

func failure(t domain.CheckType, reason domain.FailureReason, err error, details map[string]interface{}) domain.CheckResult {
	res := domain.CheckResult{
		Type:    t,
		Status:  domain.StatusFailed,
		Reason:  reason,
		Details: details,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func componentLogger(log *slog.Logger, t domain.CheckType) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With("check", string(t))
}

func clockOrNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
