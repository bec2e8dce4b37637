package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/utils"
)

// StudyService runs a learner session over one QuestionBank: draw, check, record, persist
type StudyService interface {
	// Next draws the next question; ok is false once every question is mastered
	Next(ctx context.Context) (sel *models.Selection, ok bool)
	// Submit checks raw learner input against the question at index. Input that normalizes
	// to no letters returns ErrInvalidAnswer and records nothing. Correct answers are
	// recorded and saved immediately.
	Submit(ctx context.Context, index int, raw string) (*models.AnswerOutcome, error)
	// Reset zeroes all counters and saves
	Reset(ctx context.Context) (*models.BankStats, error)
	Stats(ctx context.Context) *models.BankStats
	Describe(sel *models.Selection) *models.QuestionView
}

type studyService struct {
	mu       sync.Mutex
	bank     *QuestionBank
	rng      RandomSource
	progress ProgressEventService
	logger   *slog.Logger
}

func NewStudyService(bank *QuestionBank, rng RandomSource, progress ProgressEventService, logger *slog.Logger) StudyService {
	return &studyService{
		bank:     bank,
		rng:      rng,
		progress: progress,
		logger:   logger,
	}
}

func (s *studyService) Next(ctx context.Context) (*models.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.bank.Select(s.rng)
	if !ok {
		s.logger.Info("All questions mastered", "bank_path", s.bank.Path())
		if s.progress != nil {
			s.progress.BankExhausted(ctx, s.bank.Stats())
		}
		return nil, false
	}
	return sel, true
}

func (s *studyService) Submit(ctx context.Context, index int, raw string) (*models.AnswerOutcome, error) {
	submitted := utils.NormalizeAnswers(raw)
	if len(submitted) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnswer, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.bank.Question(index)
	if err != nil {
		return nil, err
	}

	threshold := s.bank.Threshold()
	outcome := &models.AnswerOutcome{
		Index:        index,
		Correct:      utils.AnswersMatch(submitted, q.Answer),
		Submitted:    submitted,
		Expected:     utils.LettersToString(utils.NormalizeAnswers(q.Answer)),
		MasteryCount: q.MasteryCount,
	}

	wasMastered := q.MasteryCount >= threshold
	if outcome.Correct {
		sel := &models.Selection{Index: index}
		if err := s.bank.RecordCorrect(sel); err != nil {
			return nil, err
		}
		if err := s.bank.Save(ctx); err != nil {
			return nil, err
		}
		outcome.MasteryCount++
	}
	outcome.Mastered = outcome.MasteryCount >= threshold
	outcome.RemainingCount = s.bank.RemainingCount()

	s.logger.Debug("Answer submitted",
		"index", index,
		"correct", outcome.Correct,
		"mastery_count", outcome.MasteryCount)

	if s.progress != nil {
		s.progress.QuestionAnswered(ctx, s.bank.Path(), outcome)
		if outcome.Mastered && !wasMastered {
			s.progress.QuestionMastered(ctx, s.bank.Path(), outcome, threshold)
		}
	}
	return outcome, nil
}

func (s *studyService) Reset(ctx context.Context) (*models.BankStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bank.Reset()
	if err := s.bank.Save(ctx); err != nil {
		return nil, err
	}

	stats := s.bank.Stats()
	s.logger.Info("Question bank reset", "bank_path", stats.Path, "questions", stats.Total)
	if s.progress != nil {
		s.progress.BankReset(ctx, stats)
	}
	return stats, nil
}

func (s *studyService) Stats(ctx context.Context) *models.BankStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank.Stats()
}

func (s *studyService) Describe(sel *models.Selection) *models.QuestionView {
	return Describe(sel)
}
