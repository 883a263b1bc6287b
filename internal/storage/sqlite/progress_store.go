package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// ProgressStore persists per-step completion records.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Upsert records a step status. One row per (lesson_id, step_id): repeated
// writes overwrite, last write wins.
func (s *ProgressStore) Upsert(p *domain.StepProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO step_progress (lesson_id, step_id, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(lesson_id, step_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		p.LessonID, string(p.StepID), string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert step progress: %w", err)
	}
	return nil
}

// List returns all progress rows, most recently updated first.
func (s *ProgressStore) List() ([]*domain.StepProgress, error) {
	rows, err := s.db.Query(`
		SELECT lesson_id, step_id, status, updated_at
		FROM step_progress ORDER BY updated_at DESC, lesson_id, step_id`)
	if err != nil {
		return nil, fmt.Errorf("list step progress: %w", err)
	}
	defer rows.Close()

	var progress []*domain.StepProgress
	for rows.Next() {
		var p domain.StepProgress
		var step, status string
		if err := rows.Scan(&p.LessonID, &step, &status, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.StepID = domain.StepID(step)
		p.Status = domain.StepStatus(status)
		progress = append(progress, &p)
	}
	return progress, rows.Err()
}

// ListForLesson returns the progress rows of a single lesson.
func (s *ProgressStore) ListForLesson(lessonID string) ([]*domain.StepProgress, error) {
	rows, err := s.db.Query(`
		SELECT lesson_id, step_id, status, updated_at
		FROM step_progress WHERE lesson_id = ?`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	defer rows.Close()

	var progress []*domain.StepProgress
	for rows.Next() {
		var p domain.StepProgress
		var step, status string
		if err := rows.Scan(&p.LessonID, &step, &status, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.StepID = domain.StepID(step)
		p.Status = domain.StepStatus(status)
		progress = append(progress, &p)
	}
	return progress, rows.Err()
}

// CompletedCount returns how many (lesson, step) pairs among the given
// lessons are marked completed. Only the known lesson steps count, so a
// stray row cannot inflate a course past its real progress.
func (s *ProgressStore) CompletedCount(lessonIDs []string) (int, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}

	steps := domain.Steps()
	args := make([]any, 0, len(lessonIDs)+len(steps)+1)
	for _, id := range lessonIDs {
		args = append(args, id)
	}
	for _, step := range steps {
		args = append(args, string(step))
	}
	args = append(args, string(domain.StatusCompleted))

	var count int
	err := s.db.QueryRow(fmt.Sprintf(`
		SELECT COUNT(*) FROM step_progress
		WHERE lesson_id IN (%s) AND step_id IN (%s) AND status = ?`,
		placeholders(len(lessonIDs)), placeholders(len(steps))), args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("completed count: %w", err)
	}
	return count, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
