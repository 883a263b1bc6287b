package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// Producer publishes lesson lifecycle events
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishRunFinished publishes a terminal run so feedback can be
// generated asynchronously. Satisfies the runner's Publisher interface.
func (p *Producer) PublishRunFinished(ctx context.Context, run *domain.Run) error {
	event := &RunFinishedEvent{
		ID:         uuid.New(),
		RunID:      run.ID,
		LessonID:   run.LessonID,
		Language:   run.Language,
		State:      run.State,
		Output:     run.Output,
		FinishedAt: run.FinishedAt,
	}
	if event.FinishedAt.IsZero() {
		event.FinishedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, RunFinishedQueueName, event); err != nil {
		return fmt.Errorf("failed to publish run-finished event: %w", err)
	}

	slog.Info("published run-finished event",
		"event_id", event.ID,
		"run_id", event.RunID,
		"lesson_id", event.LessonID,
		"state", event.State,
	)

	return nil
}

// PublishStepCompleted publishes a step completion event
func (p *Producer) PublishStepCompleted(ctx context.Context, lessonID string, step domain.StepID) error {
	event := &StepCompletedEvent{
		ID:          uuid.New(),
		LessonID:    lessonID,
		StepID:      step,
		CompletedAt: time.Now(),
	}

	if err := p.conn.PublishJSON(ctx, StepCompletedQueueName, event); err != nil {
		return fmt.Errorf("failed to publish step-completed event: %w", err)
	}

	slog.Info("published step-completed event",
		"event_id", event.ID,
		"lesson_id", event.LessonID,
		"step_id", event.StepID,
	)

	return nil
}
