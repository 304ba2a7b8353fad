package repository

import (
	"context"
	"fmt"
	"log/slog"

	"ozzus/agent-watch/internal/domain"
)

// ReportRepository receives one report per check cycle.
type ReportRepository interface {
	SendReport(ctx context.Context, report domain.Report) error
}

// EventPublisher is satisfied by kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
	Topic() string
}

type KafkaReportRepository struct {
	producer EventPublisher
	log      *slog.Logger
}

func NewKafkaReportRepository(producer EventPublisher, log *slog.Logger) ReportRepository {
	if log == nil {
		log = slog.Default()
	}
	return &KafkaReportRepository{producer: producer, log: log}
}

func (r *KafkaReportRepository) SendReport(ctx context.Context, report domain.Report) error {
	if err := r.producer.PublishEvent(ctx, report.ID, report); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	r.log.Debug("report published",
		"report_id", report.ID,
		"topic", r.producer.Topic(),
		"healthy", report.Healthy,
	)
	return nil
}

// NopReportRepository drops reports. Used when no sink is configured.
type NopReportRepository struct{}

func (NopReportRepository) SendReport(context.Context, domain.Report) error { return nil }
