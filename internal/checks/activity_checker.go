package checks

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"

	"ozzus/agent-watch/internal/domain"
)

// Activity is the most recently modified candidate log.
type Activity struct {
	Path       string
	ModifiedAt time.Time
	Idle       time.Duration
}

type ActivityChecker struct {
	fs         afero.Fs
	candidates []string
	staleAfter time.Duration
	now        func() time.Time
	log        *slog.Logger
}

func NewActivityChecker(fs afero.Fs, candidates []string, staleAfter time.Duration, now func() time.Time, log *slog.Logger) *ActivityChecker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}

	return &ActivityChecker{
		fs:         fs,
		candidates: candidates,
		staleAfter: staleAfter,
		now:        clockOrNow(now),
		log:        componentLogger(log, domain.CheckTypeActivity),
	}
}

// Latest returns the candidate with the newest modification time. The second
// return value is false when no candidate exists.
func (a *ActivityChecker) Latest() (Activity, bool) {
	var latest Activity
	found := false

	for _, path := range a.candidates {
		info, err := a.fs.Stat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				a.log.Warn("activity log stat failed", "path", path, "error", err.Error())
			}
			continue
		}

		if !found || info.ModTime().After(latest.ModifiedAt) {
			latest = Activity{Path: path, ModifiedAt: info.ModTime()}
			found = true
		}
	}

	if found {
		latest.Idle = a.now().Sub(latest.ModifiedAt)
	}

	return latest, found
}

func (a *ActivityChecker) Check(_ context.Context) domain.CheckResult {
	activity, ok := a.Latest()
	if !ok {
		a.log.Warn("no activity log found", "candidates", len(a.candidates))
		return failure(domain.CheckTypeActivity, domain.ReasonNoLogFound, nil,
			map[string]interface{}{"candidates": a.candidates})
	}

	idle := roundMinutes(activity.Idle)

	a.log.Info("last activity", "at", activity.ModifiedAt.Local().Format(time.DateTime))
	a.log.Info("idle time", "minutes", idle)
	a.log.Info("active log", "path", activity.Path)

	details := map[string]interface{}{
		"path":         activity.Path,
		"modified_at":  activity.ModifiedAt,
		"idle_minutes": minutes(activity.Idle),
	}

	if activity.Idle > a.staleAfter {
		a.log.Error("agent inactive beyond threshold",
			"idle_minutes", idle,
			"threshold_minutes", roundMinutes(a.staleAfter),
		)
		return failure(domain.CheckTypeActivity, domain.ReasonStale, nil, details)
	}

	return success(domain.CheckTypeActivity, details)
}

func (a *ActivityChecker) Type() domain.CheckType {
	return domain.CheckTypeActivity
}
