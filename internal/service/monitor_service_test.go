package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/agent-watch/internal/domain"
	"ozzus/agent-watch/internal/lib/logger/slogrecorder"
	"ozzus/agent-watch/internal/notify"
)

type fakeChecker struct {
	typ    domain.CheckType
	ok     bool
	calls  atomic.Int32
	called chan struct{}
}

func (f *fakeChecker) Check(context.Context) domain.CheckResult {
	f.calls.Add(1)
	if f.called != nil {
		f.called <- struct{}{}
	}
	if f.ok {
		return domain.CheckResult{Type: f.typ, Status: domain.StatusSuccess}
	}
	return domain.CheckResult{Type: f.typ, Status: domain.StatusFailed, Reason: domain.ReasonStale}
}

func (f *fakeChecker) Type() domain.CheckType { return f.typ }

type fakeNotifier struct {
	calls    atomic.Int32
	delivery notify.Delivery
}

func (f *fakeNotifier) Notify(context.Context) notify.Delivery {
	f.calls.Add(1)
	return f.delivery
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeReports struct {
	reports []domain.Report
	err     error
}

func (f *fakeReports) SendReport(_ context.Context, r domain.Report) error {
	f.reports = append(f.reports, r)
	return f.err
}

func newService(t *testing.T, notifier Notifier, checkers ...Checker) (*MonitorService, *slogrecorder.Recorder) {
	t.Helper()

	rec := slogrecorder.New()
	s := NewMonitorService(notifier, nil, rec.Logger(), Config{AgentID: "twitter-agent", Interval: time.Minute})
	for _, c := range checkers {
		s.RegisterChecker(c)
	}
	return s, rec
}

func passing() []Checker {
	return []Checker{
		&fakeChecker{typ: domain.CheckTypeCredentials, ok: true},
		&fakeChecker{typ: domain.CheckTypeProcess, ok: true},
		&fakeChecker{typ: domain.CheckTypeActivity, ok: true},
	}
}

func TestCheckOnceHealthy(t *testing.T) {
	notifier := &fakeNotifier{}
	s, rec := newService(t, notifier, passing()...)

	code := s.CheckOnce(context.Background())

	assert.Equal(t, 0, code)
	assert.Zero(t, notifier.calls.Load())
	assert.Equal(t, 1, rec.Count("all systems operational"))
	assert.Zero(t, rec.Count("manual remediation required"))
	assert.Zero(t, rec.Count("remediation step"))
}

func TestCheckOnceFailing(t *testing.T) {
	notifier := &fakeNotifier{}
	checkers := passing()
	checkers[2] = &fakeChecker{typ: domain.CheckTypeActivity, ok: false}
	s, rec := newService(t, notifier, checkers...)

	code := s.CheckOnce(context.Background())

	assert.Equal(t, 1, code)
	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.Equal(t, 1, rec.Count("problem detected"))
	assert.Equal(t, 1, rec.Count("manual remediation required"))
	assert.Equal(t, len(remediationSteps), rec.Count("remediation step"))
	assert.Zero(t, rec.Count("all systems operational"))
}

func TestRunCycleRunsEveryCheckerInOrder(t *testing.T) {
	checkers := []Checker{
		&fakeChecker{typ: domain.CheckTypeCredentials, ok: false},
		&fakeChecker{typ: domain.CheckTypeProcess, ok: true},
		&fakeChecker{typ: domain.CheckTypeActivity, ok: true},
	}
	s, _ := newService(t, nil, checkers...)

	report := s.RunCycle(context.Background())

	require.Len(t, report.Results, 3)
	assert.False(t, report.Healthy)
	assert.NotEmpty(t, report.ID)
	for i, c := range checkers {
		assert.Equal(t, c.Type(), report.Results[i].Type)
		assert.Equal(t, int32(1), c.(*fakeChecker).calls.Load())
	}
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, domain.CheckTypeCredentials, report.Failed()[0].Type)

	last, ok := s.LastReport()
	require.True(t, ok)
	assert.Equal(t, report.ID, last.ID)
}

func TestRunCycleReportFailureIsNotFatal(t *testing.T) {
	rec := slogrecorder.New()
	reports := &fakeReports{err: errors.New("kafka unavailable")}
	s := NewMonitorService(nil, reports, rec.Logger(), Config{})
	for _, c := range passing() {
		s.RegisterChecker(c)
	}

	report := s.RunCycle(context.Background())

	assert.True(t, report.Healthy)
	assert.Len(t, reports.reports, 1)
	assert.Equal(t, 1, rec.Count("failed to send report"))
}

func TestFailedDeliveryDoesNotChangeVerdict(t *testing.T) {
	notifier := &fakeNotifier{delivery: notify.Delivery{Attempted: true, Err: errors.New("unexpected status 500")}}
	s, _ := newService(t, notifier, &fakeChecker{typ: domain.CheckTypeProcess, ok: false})

	assert.Equal(t, 1, s.CheckOnce(context.Background()))
	assert.Equal(t, int32(1), notifier.calls.Load())
}

func TestAlertEveryFailingCycleByDefault(t *testing.T) {
	notifier := &fakeNotifier{delivery: notify.Delivery{Attempted: true, Delivered: true}}
	s, rec := newService(t, notifier, &fakeChecker{typ: domain.CheckTypeProcess, ok: false})

	for i := 0; i < 3; i++ {
		s.RunCycle(context.Background())
	}

	assert.Equal(t, int32(3), notifier.calls.Load())
	assert.Equal(t, 3, rec.Count("manual remediation required"))
}

func TestAlertCooldown(t *testing.T) {
	notifier := &fakeNotifier{delivery: notify.Delivery{Attempted: true, Delivered: true}}
	rec := slogrecorder.New()
	s := NewMonitorService(notifier, nil, rec.Logger(), Config{Interval: time.Minute, AlertCooldown: time.Hour})
	s.RegisterChecker(&fakeChecker{typ: domain.CheckTypeProcess, ok: false})

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.RunCycle(context.Background())
	now = now.Add(10 * time.Minute)
	s.RunCycle(context.Background())

	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.Equal(t, 1, rec.Count("alert suppressed by cooldown"))
	assert.Equal(t, 2, rec.Count("manual remediation required"))

	now = now.Add(time.Hour)
	s.RunCycle(context.Background())
	assert.Equal(t, int32(2), notifier.calls.Load())
}

func TestStartLoop(t *testing.T) {
	checker := &fakeChecker{typ: domain.CheckTypeActivity, ok: false, called: make(chan struct{})}
	notifier := &fakeNotifier{}
	s, rec := newService(t, notifier, checker)

	ticker := &fakeTicker{ch: make(chan time.Time)}
	var interval time.Duration
	s.newTicker = func(d time.Duration) Ticker {
		interval = d
		return ticker
	}

	triggers := make(chan struct{})
	s.WithTrigger(triggers)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	waitCycle := func() {
		t.Helper()
		select {
		case <-checker.called:
		case <-time.After(2 * time.Second):
			t.Fatal("cycle did not run")
		}
	}

	// Immediate cycle, then one per tick, then one per trigger.
	waitCycle()
	ticker.ch <- time.Now()
	waitCycle()
	ticker.ch <- time.Now()
	waitCycle()
	triggers <- struct{}{}
	waitCycle()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	assert.Equal(t, time.Minute, interval)
	assert.True(t, ticker.stopped.Load())
	assert.Equal(t, int32(4), checker.calls.Load())
	assert.Equal(t, int32(4), notifier.calls.Load())
	assert.Equal(t, 1, rec.Count("credentials changed, running extra check"))
	assert.Equal(t, 1, rec.Count("monitor stopped"))
	assert.False(t, s.IsRunning())
}
