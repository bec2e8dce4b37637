package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/quizbank/internal/events"
	"github.com/SAP-F-2025/quizbank/internal/models"
)

// ProgressEventService turns conversion and study outcomes into published events.
// Publishing is best effort: failures are logged and never reach the caller.
type ProgressEventService interface {
	ConversionCompleted(ctx context.Context, result *models.ConversionResult)
	QuestionAnswered(ctx context.Context, bankPath string, outcome *models.AnswerOutcome)
	QuestionMastered(ctx context.Context, bankPath string, outcome *models.AnswerOutcome, threshold int)
	BankExhausted(ctx context.Context, stats *models.BankStats)
	BankReset(ctx context.Context, stats *models.BankStats)
}

type progressEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewProgressEventService(eventPublisher events.EventPublisher, logger *slog.Logger) ProgressEventService {
	return &progressEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *progressEventService) ConversionCompleted(ctx context.Context, result *models.ConversionResult) {
	s.publish(ctx, events.NewConversionCompletedEvent(events.ConversionCompletedEvent{
		Strategy:     string(result.Strategy),
		InputPath:    result.InputPath,
		OutputPath:   result.OutputPath,
		RetainedRows: result.RetainedRows,
		SkippedRows:  result.SkippedRows,
		IssueCount:   len(result.Issues),
	}))
}

func (s *progressEventService) QuestionAnswered(ctx context.Context, bankPath string, outcome *models.AnswerOutcome) {
	s.publish(ctx, events.NewQuestionAnsweredEvent(events.QuestionAnsweredEvent{
		BankPath:       bankPath,
		Index:          outcome.Index,
		Correct:        outcome.Correct,
		Submitted:      outcome.Submitted,
		MasteryCount:   outcome.MasteryCount,
		RemainingCount: outcome.RemainingCount,
	}))
}

func (s *progressEventService) QuestionMastered(ctx context.Context, bankPath string, outcome *models.AnswerOutcome, threshold int) {
	s.publish(ctx, events.NewQuestionMasteredEvent(events.QuestionMasteredEvent{
		BankPath:     bankPath,
		Index:        outcome.Index,
		MasteryCount: outcome.MasteryCount,
		Threshold:    threshold,
	}))
}

func (s *progressEventService) BankExhausted(ctx context.Context, stats *models.BankStats) {
	s.publish(ctx, events.NewBankExhaustedEvent(snapshot(stats)))
}

func (s *progressEventService) BankReset(ctx context.Context, stats *models.BankStats) {
	s.publish(ctx, events.NewBankResetEvent(snapshot(stats)))
}

func (s *progressEventService) publish(ctx context.Context, event *events.ProgressEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish progress event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}

func snapshot(stats *models.BankStats) events.BankSnapshotEvent {
	return events.BankSnapshotEvent{
		BankPath:  stats.Path,
		Total:     stats.Total,
		Remaining: stats.Remaining,
		Threshold: stats.Threshold,
	}
}
