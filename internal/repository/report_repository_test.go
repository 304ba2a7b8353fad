package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/agent-watch/internal/domain"
)

type fakePublisher struct {
	keys   []string
	events []interface{}
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, key string, event interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Topic() string { return "monitor-reports" }

func TestKafkaReportRepositoryKeysByReportID(t *testing.T) {
	pub := &fakePublisher{}
	repo := NewKafkaReportRepository(pub, nil)

	report := domain.Report{ID: "b3f1", Healthy: true}
	require.NoError(t, repo.SendReport(context.Background(), report))

	assert.Equal(t, []string{"b3f1"}, pub.keys)
	assert.Equal(t, report, pub.events[0])
}

func TestKafkaReportRepositoryWrapsError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	repo := NewKafkaReportRepository(&fakePublisher{err: cause}, nil)

	err := repo.SendReport(context.Background(), domain.Report{ID: "x"})

	assert.ErrorIs(t, err, cause)
}
