package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/runner"
	"github.com/akshad113/loom-ai-instructor/internal/workspace"
)

// RunHandler handles code execution endpoints
type RunHandler struct {
	runner    *runner.Service
	workspace *workspace.Workspace
}

// NewRunHandler creates a new run handler
func NewRunHandler(runnerService *runner.Service, ws *workspace.Workspace) *RunHandler {
	return &RunHandler{
		runner:    runnerService,
		workspace: ws,
	}
}

// TriggerRequest is the body for starting a run
type TriggerRequest struct {
	LessonID string `json:"lesson_id"`
	Code     string `json:"code,omitempty"`
}

// Trigger runs the code for a lesson. One run per lesson at a time; a
// second trigger while one is in flight returns 409.
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}
	if req.LessonID == "" {
		BadRequest(w, r, "lesson_id is required")
		return
	}

	// A run executes the editor buffer; an explicit code field replaces
	// it first so the run and the editor stay in sync.
	if req.Code != "" {
		h.workspace.Set(req.LessonID, req.Code)
	}
	code := h.workspace.Get(req.LessonID)

	run, err := h.runner.Execute(r.Context(), req.LessonID, code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// Get returns the current run state and last result for a lesson
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	lessonID := r.PathValue("lesson_id")

	response := map[string]any{
		"lesson_id": lessonID,
		"state":     h.runner.State(lessonID),
	}
	if last, ok := h.runner.LastRun(lessonID); ok {
		response["last_run"] = last
	}

	WriteJSON(w, http.StatusOK, response)
}
