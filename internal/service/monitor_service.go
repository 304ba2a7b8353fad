package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ozzus/agent-watch/internal/domain"
	"ozzus/agent-watch/internal/notify"
	"ozzus/agent-watch/internal/repository"
)

type Checker interface {
	Check(ctx context.Context) domain.CheckResult
	Type() domain.CheckType
}

type Notifier interface {
	Notify(ctx context.Context) notify.Delivery
}

// Ticker is the periodic trigger driving loop mode.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

const separator = "-----------------------------------"

var remediationSteps = []string{
	"log in to twitter.com in a browser",
	"open developer tools, Application, Cookies",
	"copy the auth_token and ct0 values",
	"update the TWITTER_COOKIES_* values in .env",
	"restart the agent: npm restart or pm2 restart",
}

type Config struct {
	AgentID       string
	Interval      time.Duration
	AlertCooldown time.Duration
}

type MonitorService struct {
	checkers []Checker
	notifier Notifier
	reports  repository.ReportRepository
	log      *slog.Logger

	agentID  string
	interval time.Duration
	cooldown time.Duration

	now       func() time.Time
	newTicker func(time.Duration) Ticker
	triggers  <-chan struct{}

	mu        sync.RWMutex
	last      *domain.Report
	lastAlert time.Time
	isRunning bool
}

func NewMonitorService(
	notifier Notifier,
	reports repository.ReportRepository,
	log *slog.Logger,
	config Config,
) *MonitorService {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Minute
	}
	if reports == nil {
		reports = repository.NopReportRepository{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &MonitorService{
		notifier:  notifier,
		reports:   reports,
		log:       log,
		agentID:   config.AgentID,
		interval:  config.Interval,
		cooldown:  config.AlertCooldown,
		now:       time.Now,
		newTicker: newTimeTicker,
	}
}

// RegisterChecker добавляет проверку. Проверки выполняются в порядке регистрации.
func (s *MonitorService) RegisterChecker(checker Checker) {
	s.checkers = append(s.checkers, checker)
	s.log.Debug("checker registered",
		"check", checker.Type(),
		"total_checkers", len(s.checkers),
	)
}

// WithTrigger makes loop mode run an extra cycle whenever ch fires.
func (s *MonitorService) WithTrigger(ch <-chan struct{}) {
	s.triggers = ch
}

// RunCycle runs every checker once, in order, and narrates the verdict. A
// failing verdict logs remediation guidance and dispatches an alert.
func (s *MonitorService) RunCycle(ctx context.Context) domain.Report {
	s.log.Info("checking system status")

	report := domain.Report{
		ID:        uuid.NewString(),
		AgentID:   s.agentID,
		StartedAt: s.now(),
		Healthy:   true,
	}

	for _, checker := range s.checkers {
		start := time.Now()
		result := checker.Check(ctx)
		result.Duration = time.Since(start).Milliseconds()

		report.Results = append(report.Results, result)
		if !result.OK() {
			report.Healthy = false
		}
	}
	report.FinishedAt = s.now()

	if report.Healthy {
		s.log.Info("all systems operational")
	} else {
		failed := make([]string, 0, len(report.Results))
		for _, res := range report.Failed() {
			failed = append(failed, string(res.Type)+":"+string(res.Reason))
		}
		s.log.Warn("problem detected", "failed", failed)
		s.suggestManualActions(ctx)
	}

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	if err := s.reports.SendReport(ctx, report); err != nil {
		s.log.Warn("failed to send report", "report_id", report.ID, "error", err.Error())
	}

	s.log.Info(separator)
	return report
}

func (s *MonitorService) suggestManualActions(ctx context.Context) {
	s.log.Info("manual remediation required")
	for i, step := range remediationSteps {
		s.log.Info("remediation step", "step", i+1, "action", step)
	}

	if s.notifier == nil {
		return
	}

	if s.cooldown > 0 {
		s.mu.RLock()
		last := s.lastAlert
		s.mu.RUnlock()

		if !last.IsZero() && s.now().Sub(last) < s.cooldown {
			s.log.Info("alert suppressed by cooldown",
				"last_alert", last,
				"cooldown", s.cooldown.String(),
			)
			return
		}
	}

	d := s.notifier.Notify(ctx)
	if d.Attempted {
		s.mu.Lock()
		s.lastAlert = s.now()
		s.mu.Unlock()
	}
}

// CheckOnce runs a single cycle and returns the process exit code: 0 when
// every check passed, 1 otherwise.
func (s *MonitorService) CheckOnce(ctx context.Context) int {
	s.log.Info("running one-shot status check")

	if report := s.RunCycle(ctx); !report.Healthy {
		return 1
	}
	return 0
}

// Start runs a cycle immediately and then one per interval until ctx is
// cancelled. Cycles run on the calling goroutine and never overlap.
func (s *MonitorService) Start(ctx context.Context) error {
	s.setRunning(true)
	defer s.setRunning(false)

	s.log.Info("starting monitor",
		"agent_id", s.agentID,
		"interval", s.interval.String(),
		"checkers", len(s.checkers),
	)

	s.RunCycle(ctx)

	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			s.RunCycle(ctx)
		case _, ok := <-s.triggers:
			if !ok {
				s.triggers = nil
				continue
			}
			s.log.Info("credentials changed, running extra check")
			s.RunCycle(ctx)
		case <-ctx.Done():
			s.log.Info("monitor stopped")
			return nil
		}
	}
}

func (s *MonitorService) setRunning(v bool) {
	s.mu.Lock()
	s.isRunning = v
	s.mu.Unlock()
}

func (s *MonitorService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastReport returns the most recent cycle's report, if any cycle has run.
func (s *MonitorService) LastReport() (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return domain.Report{}, false
	}
	return *s.last, true
}

func (s *MonitorService) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"agent_id":   s.agentID,
		"is_running": s.IsRunning(),
		"interval":   s.interval.String(),
		"checkers":   len(s.checkers),
	}

	if report, ok := s.LastReport(); ok {
		status["last_report"] = report
	}

	return status
}
