package checks

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/agent-watch/internal/domain"
	"ozzus/agent-watch/internal/lib/logger/slogrecorder"
)

var (
	testNow    = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	candidates = []string{"logs/eliza.log", "logs/twitter.log", "eliza.log", "twitter.log"}
)

func touch(t *testing.T, fs afero.Fs, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte("log line\n"), 0o644))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

func newActivityChecker(fs afero.Fs) (*ActivityChecker, *slogrecorder.Recorder) {
	rec := slogrecorder.New()
	return NewActivityChecker(fs, candidates, 30*time.Minute, func() time.Time { return testNow }, rec.Logger()), rec
}

func TestActivityCheckerRecent(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "logs/twitter.log", testNow.Add(-5*time.Minute))

	a, rec := newActivityChecker(fs)
	res := a.Check(context.Background())

	assert.True(t, res.OK())
	assert.Equal(t, "logs/twitter.log", res.Details["path"])
	assert.InDelta(t, 5.0, res.Details["idle_minutes"], 0.01)

	entry, ok := rec.Find("idle time")
	require.True(t, ok)
	assert.Equal(t, int64(5), entry.Attrs["minutes"].Int64())
	assert.Equal(t, 1, rec.Count("active log"))
	assert.Equal(t, 1, rec.Count("last activity"))
}

func TestActivityCheckerStale(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "logs/twitter.log", testNow.Add(-45*time.Minute))

	a, rec := newActivityChecker(fs)
	res := a.Check(context.Background())

	assert.False(t, res.OK())
	assert.Equal(t, domain.ReasonStale, res.Reason)
	assert.Equal(t, 1, rec.Count("agent inactive beyond threshold"))
	assert.Equal(t, 1, rec.Count("active log"))
}

func TestActivityCheckerPicksNewest(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "logs/eliza.log", testNow.Add(-3*time.Hour))
	touch(t, fs, "twitter.log", testNow.Add(-2*time.Minute))
	touch(t, fs, "eliza.log", testNow.Add(-40*time.Minute))

	a, _ := newActivityChecker(fs)

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, "twitter.log", latest.Path)
	assert.Equal(t, 2*time.Minute, latest.Idle)
	assert.True(t, a.Check(context.Background()).OK())
}

func TestActivityCheckerNoLog(t *testing.T) {
	a, rec := newActivityChecker(afero.NewMemMapFs())

	res := a.Check(context.Background())

	assert.False(t, res.OK())
	assert.Equal(t, domain.ReasonNoLogFound, res.Reason)
	assert.Equal(t, 1, rec.Count("no activity log found"))
	assert.Zero(t, rec.Count("agent inactive beyond threshold"))
	assert.Zero(t, rec.Count("active log"))
}
