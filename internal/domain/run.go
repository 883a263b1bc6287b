package domain

import "time"

// RunState tracks a code run through its lifecycle. Each lesson has at
// most one run in flight; finished runs return the slot to idle.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// Run is one execution of the editor buffer for a lesson.
type Run struct {
	ID         string    `json:"id"`
	LessonID   string    `json:"lesson_id"`
	Language   Language  `json:"language"`
	State      RunState  `json:"state"`
	Output     string    `json:"output"`
	Preview    string    `json:"preview,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}
