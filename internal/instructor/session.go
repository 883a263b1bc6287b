package instructor

import (
	"time"

	"github.com/google/uuid"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// Session is one conversation with the instructor, keyed by lesson and
// step. Entering a different (lesson, step) pair starts a fresh session
// with an empty transcript.
type Session struct {
	ID       string        `json:"id"`
	LessonID string        `json:"lesson_id"`
	Step     domain.StepID `json:"step"`

	Transcript []domain.TranscriptEntry `json:"transcript"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a session for a (lesson, step) pair.
func NewSession(lessonID string, step domain.StepID) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New().String(),
		LessonID:   lessonID,
		Step:       step,
		Transcript: []domain.TranscriptEntry{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Append adds one transcript entry.
func (s *Session) Append(role domain.TranscriptRole, text string) {
	now := time.Now()
	s.Transcript = append(s.Transcript, domain.TranscriptEntry{
		Role:      role,
		Text:      text,
		Timestamp: now,
	})
	s.UpdatedAt = now
}

// Key identifies the (lesson, step) pair a session belongs to.
func (s *Session) Key() string {
	return sessionKey(s.LessonID, s.Step)
}

func sessionKey(lessonID string, step domain.StepID) string {
	return lessonID + "/" + string(step)
}
