package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// LessonSource resolves the lesson a run belongs to.
type LessonSource interface {
	GetLesson(id string) (*domain.Lesson, error)
}

// Reviewer receives finished runs for AI feedback. Failures are the
// reviewer's problem; the run result stands either way.
type Reviewer interface {
	ReviewRun(ctx context.Context, lesson *domain.Lesson, code string, run *domain.Run) error
}

// Publisher emits run lifecycle events.
type Publisher interface {
	PublishRunFinished(ctx context.Context, run *domain.Run) error
}

// Service dispatches code runs by lesson language and enforces the
// one-run-per-lesson rule.
type Service struct {
	executors map[domain.Language]Executor
	lessons   LessonSource
	reviewer  Reviewer
	publisher Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	running map[string]*domain.Run
	last    map[string]*domain.Run
}

// NewService creates a runner service. reviewer and publisher may be
// nil when feedback or eventing is not configured.
func NewService(lessons LessonSource, logger *slog.Logger) *Service {
	return &Service{
		executors: make(map[domain.Language]Executor),
		lessons:   lessons,
		logger:    logger,
		running:   make(map[string]*domain.Run),
		last:      make(map[string]*domain.Run),
	}
}

// RegisterExecutor binds an executor to a language.
func (s *Service) RegisterExecutor(language domain.Language, executor Executor) {
	s.executors[language] = executor
}

// SetReviewer wires post-run AI feedback.
func (s *Service) SetReviewer(r Reviewer) {
	s.reviewer = r
}

// SetPublisher wires run event publishing.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Execute runs the given code for a lesson. A second call for the same
// lesson while one is in flight is rejected.
func (s *Service) Execute(ctx context.Context, lessonID, code string) (*domain.Run, error) {
	lesson, err := s.lessons.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	executor, ok := s.executors[lesson.Language]
	if !ok {
		return nil, fmt.Errorf("%w: no executor for language %q", domain.ErrValidation, lesson.Language)
	}

	run := &domain.Run{
		ID:        uuid.New().String(),
		LessonID:  lessonID,
		Language:  lesson.Language,
		State:     domain.RunRunning,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	if _, inFlight := s.running[lessonID]; inFlight {
		s.mu.Unlock()
		return nil, domain.ErrRunInFlight
	}
	s.running[lessonID] = run
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, lessonID)
		s.last[lessonID] = run
		s.mu.Unlock()
	}()

	result, err := executor.Run(ctx, code)
	run.FinishedAt = time.Now()

	switch {
	case errors.Is(err, domain.ErrRuntimeUnavailable):
		// Not a fault in the user's code: surface as output text and
		// skip feedback.
		run.State = domain.RunFailed
		run.Output = "The Python runtime is not ready yet. Try again in a moment."
		s.logger.Warn("run rejected, runtime unavailable", "lesson_id", lessonID)
		return run, nil
	case err != nil:
		// Infrastructure failure, distinct from a user-code fault.
		run.State = domain.RunFailed
		run.Output = err.Error()
		s.logger.Error("run failed", "lesson_id", lessonID, "language", lesson.Language, "error", err)
		return run, err
	case result.Failed:
		run.State = domain.RunFailed
		run.Output = result.Output
		run.Preview = result.Preview
	default:
		run.State = domain.RunSucceeded
		run.Output = result.Output
		run.Preview = result.Preview
	}

	s.logger.Info("run finished",
		"lesson_id", lessonID,
		"language", lesson.Language,
		"state", run.State,
		"duration", result.Duration)

	s.afterRun(ctx, lesson, code, run)
	return run, nil
}

// State returns the current run state for a lesson.
func (s *Service) State(lessonID string) domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[lessonID]; ok {
		return domain.RunRunning
	}
	if run, ok := s.last[lessonID]; ok {
		return run.State
	}
	return domain.RunIdle
}

// LastRun returns the most recent finished run for a lesson.
func (s *Service) LastRun(lessonID string) (*domain.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.last[lessonID]
	return run, ok
}

// afterRun forwards the result for AI feedback and eventing. Both are
// best-effort: a failure here is logged and swallowed so it can never
// mask the run's own output.
func (s *Service) afterRun(ctx context.Context, lesson *domain.Lesson, code string, run *domain.Run) {
	if s.reviewer != nil {
		if err := s.reviewer.ReviewRun(ctx, lesson, code, run); err != nil {
			s.logger.Warn("run feedback request failed", "lesson_id", lesson.ID, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRunFinished(ctx, run); err != nil {
			s.logger.Warn("run event publish failed", "lesson_id", lesson.ID, "error", err)
		}
	}
}
