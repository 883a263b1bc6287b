package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// Tutor runs the instructor-facing AI operations on top of a Provider.
// Every reply that carries structure is requested as JSON and validated
// at the boundary; a malformed reply is an upstream error, never a
// panic.
type Tutor struct {
	provider Provider
	logger   *slog.Logger
}

// NewTutor creates a tutor over the given provider.
func NewTutor(provider Provider, logger *slog.Logger) *Tutor {
	return &Tutor{provider: provider, logger: logger}
}

// TurnInput carries one student message with its teaching context.
type TurnInput struct {
	Lesson     *domain.Lesson
	Step       domain.StepID
	Transcript []domain.TranscriptEntry
	Code       string
	Message    string
}

// TurnResponse is the instructor's reply. CodeUpdate, when set,
// replaces the editor buffer.
type TurnResponse struct {
	Text       string `json:"text"`
	CodeUpdate string `json:"code_update,omitempty"`
}

// FeedbackInput carries the result of a code run for review.
type FeedbackInput struct {
	Lesson *domain.Lesson
	Step   domain.StepID
	Code   string
	Output string
	Failed bool
}

// FeedbackResponse is the structured verdict on a code run.
type FeedbackResponse struct {
	IsCorrect   bool     `json:"is_correct"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions,omitempty"`
	Hints       []string `json:"hints,omitempty"`
}

const turnSystemPrompt = `You are a patient programming instructor guiding a student
through a lesson one step at a time. Keep replies short and conversational;
they will be spoken aloud. When the student needs a concrete change, include
the full updated file.

Respond with JSON only: {"text": "...", "code_update": "..."}.
Omit code_update unless the editor content should change.`

// Turn sends a student message and returns the instructor's reply.
func (t *Tutor) Turn(ctx context.Context, in *TurnInput) (*TurnResponse, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Lesson: %s\nStep: %s\nConcept: %s\n", in.Lesson.Title, in.Step, in.Lesson.Concept)
	if in.Code != "" {
		fmt.Fprintf(&sb, "\nCurrent editor content:\n%s\n", in.Code)
	}

	messages := []Message{{Role: RoleUser, Content: sb.String()}}
	for _, entry := range in.Transcript {
		role := RoleUser
		if entry.Role == domain.RoleInstructor {
			role = RoleModel
		}
		messages = append(messages, Message{Role: role, Content: entry.Text})
	}
	messages = append(messages, Message{Role: RoleUser, Content: in.Message})

	resp, err := t.provider.Generate(ctx, &Request{
		System:   turnSystemPrompt,
		Messages: messages,
	})
	if err != nil {
		return nil, err
	}

	var turn TurnResponse
	if err := decodeReply(resp.Content, &turn); err != nil {
		return nil, err
	}
	if turn.Text == "" {
		return nil, fmt.Errorf("%w: reply missing text", domain.ErrUpstream)
	}
	return &turn, nil
}

const feedbackSystemPrompt = `You review a student's code run and give encouraging,
specific feedback. Respond with JSON only:
{"is_correct": true, "feedback": "...", "suggestions": ["..."], "hints": ["..."]}`

// Feedback reviews a finished code run.
func (t *Tutor) Feedback(ctx context.Context, in *FeedbackInput) (*FeedbackResponse, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Lesson: %s\nStep: %s\nExercise: %s\n", in.Lesson.Title, in.Step, in.Lesson.PracticeGuided)
	fmt.Fprintf(&sb, "\nStudent code:\n%s\n\nRun output:\n%s\n", in.Code, in.Output)
	if in.Failed {
		sb.WriteString("\nThe run failed.\n")
	}

	resp, err := t.provider.Generate(ctx, &Request{
		System:   feedbackSystemPrompt,
		Messages: []Message{{Role: RoleUser, Content: sb.String()}},
	})
	if err != nil {
		return nil, err
	}

	var fb FeedbackResponse
	if err := decodeReply(resp.Content, &fb); err != nil {
		return nil, err
	}
	if fb.Feedback == "" {
		return nil, fmt.Errorf("%w: reply missing feedback", domain.ErrUpstream)
	}
	return &fb, nil
}

const curriculumSystemPrompt = `You convert raw course material into a structured
curriculum. Respond with JSON only:
{"title": "...", "description": "...", "modules": [{"title": "...",
"lessons": [{"title": "...", "concept": "...", "example": "...",
"practice_guided": "...", "practice_independent": "...",
"language": "javascript|html|css|python"}]}]}`

type curriculumReply struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Modules     []struct {
		Title   string `json:"title"`
		Lessons []struct {
			Title               string `json:"title"`
			Concept             string `json:"concept"`
			Example             string `json:"example"`
			PracticeGuided      string `json:"practice_guided"`
			PracticeIndependent string `json:"practice_independent"`
			Language            string `json:"language"`
		} `json:"lessons"`
	} `json:"modules"`
}

// ExtractCurriculum turns pasted course material into a course draft.
func (t *Tutor) ExtractCurriculum(ctx context.Context, material string) (*domain.Course, error) {
	resp, err := t.provider.Generate(ctx, &Request{
		System:   curriculumSystemPrompt,
		Messages: []Message{{Role: RoleUser, Content: material}},
	})
	if err != nil {
		return nil, err
	}

	var reply curriculumReply
	if err := decodeReply(resp.Content, &reply); err != nil {
		return nil, err
	}
	if reply.Title == "" || len(reply.Modules) == 0 {
		return nil, fmt.Errorf("%w: curriculum missing title or modules", domain.ErrUpstream)
	}

	course := &domain.Course{
		Title:       reply.Title,
		Description: reply.Description,
		Modules:     make([]domain.Module, len(reply.Modules)),
	}
	for mi, m := range reply.Modules {
		mod := domain.Module{
			Title:   m.Title,
			Lessons: make([]domain.Lesson, len(m.Lessons)),
		}
		for li, l := range m.Lessons {
			mod.Lessons[li] = domain.Lesson{
				Title:               l.Title,
				Concept:             l.Concept,
				Example:             l.Example,
				PracticeGuided:      l.PracticeGuided,
				PracticeIndependent: l.PracticeIndependent,
				Language:            domain.Language(l.Language),
			}
		}
		course.Modules[mi] = mod
	}
	return course, nil
}

// Chat answers a free-form question without lesson context.
func (t *Tutor) Chat(ctx context.Context, message string) (string, error) {
	resp, err := t.provider.Generate(ctx, &Request{
		System:   "You are a friendly programming tutor. Answer briefly and clearly.",
		Messages: []Message{{Role: RoleUser, Content: message}},
	})
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrUpstream)
	}
	return resp.Content, nil
}

// decodeReply parses a JSON reply, tolerating markdown code fences
// some models insist on adding.
func decodeReply(content string, v any) error {
	trimmed := strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(trimmed, "```json"); ok {
		trimmed = after
	} else if after, ok := strings.CutPrefix(trimmed, "```"); ok {
		trimmed = after
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), v); err != nil {
		return fmt.Errorf("%w: malformed reply: %v", domain.ErrUpstream, err)
	}
	return nil
}
