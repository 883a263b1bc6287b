package domain

import (
	"fmt"
	"time"
)

// StepID is one of the five fixed pedagogical stages every lesson passes
// through, in order.
type StepID string

const (
	StepExplanation StepID = "explanation"
	StepExample     StepID = "example"
	StepGuided      StepID = "guided"
	StepIndependent StepID = "independent"
	StepFeedback    StepID = "feedback"
)

// StepsPerLesson is the fixed divisor for progress aggregation. Lessons with
// fewer populated stages still divide by this constant.
const StepsPerLesson = 5

// Steps returns the ordered five-stage sequence.
func Steps() [StepsPerLesson]StepID {
	return [StepsPerLesson]StepID{
		StepExplanation, StepExample, StepGuided, StepIndependent, StepFeedback,
	}
}

// IsValid checks if the step id names one of the five stages.
func (s StepID) IsValid() bool {
	switch s {
	case StepExplanation, StepExample, StepGuided, StepIndependent, StepFeedback:
		return true
	default:
		return false
	}
}

// Index returns the position of the step in the five-stage sequence,
// or -1 for an unknown step.
func (s StepID) Index() int {
	for i, step := range Steps() {
		if step == s {
			return i
		}
	}
	return -1
}

// ParseStepID converts a string to a StepID
func ParseStepID(s string) (StepID, error) {
	id := StepID(s)
	if !id.IsValid() {
		return "", fmt.Errorf("%w: unknown step: %s", ErrValidation, s)
	}
	return id, nil
}

// StepStatus is the persisted completion state of a step. The client derives
// an additional in_progress tri-state for display; it is never stored.
type StepStatus string

const (
	StatusNotStarted StepStatus = "not_started"
	StatusCompleted  StepStatus = "completed"
)

// IsValid checks if the status is a persistable value.
func (s StepStatus) IsValid() bool {
	return s == StatusNotStarted || s == StatusCompleted
}

// StepProgress is one row of the progress log. At most one row exists per
// (LessonID, StepID) pair; writes are upserts, last write wins.
type StepProgress struct {
	LessonID  string     `json:"lesson_id"`
	StepID    StepID     `json:"step_id"`
	Status    StepStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}
