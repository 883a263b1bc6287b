package instructor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// ErrSuperseded marks a turn reply that arrived after the student moved
// to a different lesson or step. Such replies are discarded, never applied.
var ErrSuperseded = errors.New("session superseded")

// Turner produces instructor replies for one conversation turn.
type Turner interface {
	Turn(ctx context.Context, in *ai.TurnInput) (*ai.TurnResponse, error)
}

// Catalog is the slice of the course service the instructor needs.
type Catalog interface {
	GetLesson(id string) (*domain.Lesson, error)
	RecordStep(lessonID string, step domain.StepID, status domain.StepStatus) (*domain.StepProgress, error)
}

// Editor is the shared code buffer the instructor can read and rewrite.
type Editor interface {
	Get(lessonID string) string
	Set(lessonID, code string)
}

// Archiver stores finished session transcripts. Optional.
type Archiver interface {
	ArchiveSession(ctx context.Context, id, lessonID string, step domain.StepID, transcript []domain.TranscriptEntry) error
}

// TurnResult bundles everything one instructor turn produced.
type TurnResult struct {
	Session *Session         `json:"session"`
	Reply   *ai.TurnResponse `json:"reply"`
	Speech  *Utterance       `json:"speech,omitempty"`
}

// Service drives the instructor conversation. One session is active at
// a time; entering a different (lesson, step) pair ends the previous
// session and starts a fresh transcript.
type Service struct {
	tutor   Turner
	catalog Catalog
	editor  Editor
	speech  *Speech
	archive Archiver
	logger  *slog.Logger

	mu     sync.Mutex
	active *Session
	epoch  uint64
}

// NewService wires the instructor service. archive may be nil.
func NewService(tutor Turner, catalog Catalog, editor Editor, speech *Speech, archive Archiver, logger *slog.Logger) *Service {
	return &Service{
		tutor:   tutor,
		catalog: catalog,
		editor:  editor,
		speech:  speech,
		archive: archive,
		logger:  logger,
	}
}

// Enter starts (or resumes) the session for a (lesson, step) pair. A new
// pair gets a cleared transcript and an opening instructor turn with
// empty history; re-entering the active pair returns it unchanged.
func (s *Service) Enter(ctx context.Context, lessonID string, step domain.StepID) (*TurnResult, error) {
	if !step.IsValid() {
		return nil, fmt.Errorf("%w: unknown step %q", domain.ErrValidation, step)
	}
	lesson, err := s.catalog.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.active != nil && s.active.Key() == sessionKey(lessonID, step) {
		session := s.active
		s.mu.Unlock()
		return &TurnResult{Session: session}, nil
	}
	s.endLocked(ctx)
	session := NewSession(lessonID, step)
	s.active = session
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	reply, err := s.tutor.Turn(ctx, &ai.TurnInput{
		Lesson:     lesson,
		Step:       step,
		Transcript: nil,
		Code:       s.editor.Get(lessonID),
		Message:    "I'm ready to start this step.",
	})
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, session, epoch, "", reply)
}

// Message sends one student message to the instructor. The reply is
// applied only if the session is still the active one when it lands.
func (s *Service) Message(ctx context.Context, lessonID string, step domain.StepID, text string) (*TurnResult, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	lesson, err := s.catalog.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.active == nil || s.active.Key() != sessionKey(lessonID, step) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no active session for this step", domain.ErrValidation)
	}
	session := s.active
	epoch := s.epoch
	transcript := make([]domain.TranscriptEntry, len(session.Transcript))
	copy(transcript, session.Transcript)
	s.mu.Unlock()

	reply, err := s.tutor.Turn(ctx, &ai.TurnInput{
		Lesson:     lesson,
		Step:       step,
		Transcript: transcript,
		Code:       s.editor.Get(lessonID),
		Message:    text,
	})
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, session, epoch, text, reply)
}

// Advance marks the current step completed, then moves to the next step
// in the fixed sequence. The last step does not wrap.
func (s *Service) Advance(ctx context.Context, lessonID string, step domain.StepID) (*TurnResult, error) {
	if !step.IsValid() {
		return nil, fmt.Errorf("%w: unknown step %q", domain.ErrValidation, step)
	}
	if _, err := s.catalog.RecordStep(lessonID, step, domain.StatusCompleted); err != nil {
		return nil, err
	}

	steps := domain.Steps()
	next := step.Index() + 1
	if next >= len(steps) {
		s.mu.Lock()
		session := s.active
		s.mu.Unlock()
		return &TurnResult{Session: session}, nil
	}
	return s.Enter(ctx, lessonID, steps[next])
}

// End finishes the active session, archiving its transcript.
func (s *Service) End(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked(ctx)
}

// StepCompleted tells the service a step was completed outside the
// conversation, e.g. through the progress API. If that step is the one
// the active session is teaching, the session is finished so the next
// enter starts fresh on the following step.
func (s *Service) StepCompleted(lessonID string, step domain.StepID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.Key() != sessionKey(lessonID, step) {
		return
	}
	s.endLocked(context.Background())
}

// Active returns the current session, or nil.
func (s *Service) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// apply commits a turn reply if the session is still current: transcript
// entries, the optional editor rewrite, and speech output.
func (s *Service) apply(ctx context.Context, session *Session, epoch uint64, studentText string, reply *ai.TurnResponse) (*TurnResult, error) {
	s.mu.Lock()
	if s.active != session || s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("discarding stale instructor reply",
			slog.String("lesson_id", session.LessonID),
			slog.String("step", string(session.Step)))
		return nil, ErrSuperseded
	}
	if studentText != "" {
		session.Append(domain.RoleStudent, studentText)
	}
	session.Append(domain.RoleInstructor, reply.Text)
	s.mu.Unlock()

	if reply.CodeUpdate != "" {
		s.editor.Set(session.LessonID, reply.CodeUpdate)
	}

	result := &TurnResult{Session: session, Reply: reply}
	if s.speech != nil {
		utterance, err := s.speech.Speak(ctx, reply.Text)
		if err == nil {
			result.Speech = utterance
		}
	}
	return result, nil
}

// endLocked archives and drops the active session. Caller holds mu.
func (s *Service) endLocked(ctx context.Context) {
	session := s.active
	if session == nil {
		return
	}
	s.active = nil
	s.epoch++
	if s.speech != nil {
		s.speech.Stop()
	}
	if s.archive == nil || len(session.Transcript) == 0 {
		return
	}
	if err := s.archive.ArchiveSession(ctx, session.ID, session.LessonID, session.Step, session.Transcript); err != nil {
		s.logger.Warn("failed to archive session transcript",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
	}
}
