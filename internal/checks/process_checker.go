package checks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"ozzus/agent-watch/internal/domain"
)

// ProcessLister returns the host's process table, one entry per line.
type ProcessLister interface {
	List(ctx context.Context) ([]string, error)
}

// PSLister lists processes with `ps aux`.
type PSLister struct {
	timeout time.Duration
}

func NewPSLister(timeout time.Duration) *PSLister {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PSLister{timeout: timeout}
}

func (l *PSLister) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ps", "aux").Output()

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("ps aux: %w", err)
	}

	return strings.Split(string(output), "\n"), nil
}

type ProcessChecker struct {
	lister  ProcessLister
	marker  string
	exclude []string
	selfPID int
	log     *slog.Logger
}

func NewProcessChecker(lister ProcessLister, marker string, exclude []string, log *slog.Logger) *ProcessChecker {
	if marker == "" {
		marker = "eliza"
	}

	return &ProcessChecker{
		lister:  lister,
		marker:  marker,
		exclude: exclude,
		selfPID: os.Getpid(),
		log:     componentLogger(log, domain.CheckTypeProcess),
	}
}

func (p *ProcessChecker) Check(ctx context.Context) domain.CheckResult {
	lines, err := p.lister.List(ctx)
	if err != nil {
		p.log.Warn("unable to determine agent process status", "error", err.Error())
		return failure(domain.CheckTypeProcess, domain.ReasonQueryFailed, err, nil)
	}

	count := p.countMatches(lines)
	details := map[string]interface{}{"count": count, "marker": p.marker}

	if count == 0 {
		p.log.Error("agent process not running", "marker", p.marker)
		return failure(domain.CheckTypeProcess, domain.ReasonNotRunning, nil, details)
	}

	p.log.Info("agent process running", "count", count)
	return success(domain.CheckTypeProcess, details)
}

func (p *ProcessChecker) countMatches(lines []string) int {
	count := 0
	for _, line := range lines {
		if !strings.Contains(line, p.marker) {
			continue
		}
		if containsAny(line, p.exclude) {
			continue
		}
		if p.isSelf(line) {
			continue
		}
		count++
	}
	return count
}

// isSelf reports whether a `ps aux` line belongs to this process. The PID is
// the second column.
func (p *ProcessChecker) isSelf(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}

	pid, err := strconv.Atoi(fields[1])
	return err == nil && pid == p.selfPID
}

func (p *ProcessChecker) Type() domain.CheckType {
	return domain.CheckTypeProcess
}
