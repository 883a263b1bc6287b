package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/workspace"
)

// CodeHandler exposes the shared editor buffer
type CodeHandler struct {
	workspace *workspace.Workspace
}

// NewCodeHandler creates a new code buffer handler
func NewCodeHandler(ws *workspace.Workspace) *CodeHandler {
	return &CodeHandler{workspace: ws}
}

// Get returns the buffer for a lesson
func (h *CodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	lessonID := r.PathValue("lesson_id")

	WriteJSON(w, http.StatusOK, map[string]string{
		"lesson_id": lessonID,
		"code":      h.workspace.Get(lessonID),
	})
}

// PutRequest is the body for replacing a lesson buffer
type PutRequest struct {
	Code string `json:"code"`
}

// Put replaces the buffer for a lesson
func (h *CodeHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req PutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}

	lessonID := r.PathValue("lesson_id")
	h.workspace.Set(lessonID, req.Code)

	WriteJSON(w, http.StatusOK, map[string]string{
		"lesson_id": lessonID,
		"code":      req.Code,
	})
}
