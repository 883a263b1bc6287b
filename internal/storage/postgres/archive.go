package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// ArchivedSession is a finished instructor session kept for later review.
type ArchivedSession struct {
	ID         string
	LessonID   string
	StepID     domain.StepID
	Transcript []domain.TranscriptEntry
	ArchivedAt time.Time
}

// Archive stores finished instructor transcripts in PostgreSQL. It is an
// optional backend; the daemon only wires it when an archive URL is set.
type Archive struct {
	pool *pgxpool.Pool
}

// NewArchive connects to PostgreSQL and ensures the archive schema exists.
func NewArchive(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	a := &Archive{pool: pool}
	if err := a.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the connection pool.
func (a *Archive) Close() {
	a.pool.Close()
}

func (a *Archive) ensureSchema(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS session_archive (
			id TEXT PRIMARY KEY,
			lesson_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			transcript JSONB NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	_, err = a.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_session_archive_lesson
		ON session_archive (lesson_id, archived_at DESC)`)
	if err != nil {
		return fmt.Errorf("ensure archive index: %w", err)
	}
	return nil
}

// Store saves a finished session transcript.
func (a *Archive) Store(ctx context.Context, s *ArchivedSession) error {
	transcriptJSON, err := json.Marshal(s.Transcript)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO session_archive (id, lesson_id, step_id, transcript, archived_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			transcript = excluded.transcript,
			archived_at = excluded.archived_at
	`
	_, err = a.pool.Exec(ctx, query,
		s.ID, s.LessonID, string(s.StepID), transcriptJSON, s.ArchivedAt,
	)
	return err
}

// ArchiveSession stores a transcript stamped with the current time.
func (a *Archive) ArchiveSession(ctx context.Context, id, lessonID string, step domain.StepID, transcript []domain.TranscriptEntry) error {
	return a.Store(ctx, &ArchivedSession{
		ID:         id,
		LessonID:   lessonID,
		StepID:     step,
		Transcript: transcript,
		ArchivedAt: time.Now(),
	})
}

// GetByID retrieves an archived session.
func (a *Archive) GetByID(ctx context.Context, id string) (*ArchivedSession, error) {
	query := `
		SELECT id, lesson_id, step_id, transcript, archived_at
		FROM session_archive WHERE id = $1
	`
	return a.scanSession(a.pool.QueryRow(ctx, query, id))
}

// ListByLesson retrieves archived sessions for a lesson, newest first.
func (a *Archive) ListByLesson(ctx context.Context, lessonID string, limit int) ([]*ArchivedSession, error) {
	query := `
		SELECT id, lesson_id, step_id, transcript, archived_at
		FROM session_archive WHERE lesson_id = $1
		ORDER BY archived_at DESC
		LIMIT $2
	`
	rows, err := a.pool.Query(ctx, query, lessonID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*ArchivedSession
	for rows.Next() {
		s, err := a.scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func (a *Archive) scanSession(row pgx.Row) (*ArchivedSession, error) {
	var s ArchivedSession
	var step string
	var transcriptJSON []byte

	err := row.Scan(&s.ID, &s.LessonID, &step, &transcriptJSON, &s.ArchivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.StepID = domain.StepID(step)
	if err := json.Unmarshal(transcriptJSON, &s.Transcript); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *Archive) scanSessionRow(rows pgx.Rows) (*ArchivedSession, error) {
	var s ArchivedSession
	var step string
	var transcriptJSON []byte

	err := rows.Scan(&s.ID, &s.LessonID, &step, &transcriptJSON, &s.ArchivedAt)
	if err != nil {
		return nil, err
	}

	s.StepID = domain.StepID(step)
	if err := json.Unmarshal(transcriptJSON, &s.Transcript); err != nil {
		return nil, err
	}
	return &s, nil
}
