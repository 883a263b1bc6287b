package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
	"github.com/akshad113/loom-ai-instructor/internal/instructor"
)

// InstructorHandler handles the AI instructor session endpoints
type InstructorHandler struct {
	service *instructor.Service
}

// NewInstructorHandler creates a new instructor handler
func NewInstructorHandler(service *instructor.Service) *InstructorHandler {
	return &InstructorHandler{service: service}
}

// EnterRequest identifies the (lesson, step) pair to teach
type EnterRequest struct {
	LessonID string `json:"lesson_id"`
	StepID   string `json:"step_id"`
}

// Enter starts or resumes the session for a lesson step
func (h *InstructorHandler) Enter(w http.ResponseWriter, r *http.Request) {
	var req EnterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}

	step, err := domain.ParseStepID(req.StepID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.service.Enter(r.Context(), req.LessonID, step)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// MessageRequest carries one student message
type MessageRequest struct {
	LessonID string `json:"lesson_id"`
	StepID   string `json:"step_id"`
	Message  string `json:"message"`
}

// Message sends a student message to the instructor
func (h *InstructorHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}

	step, err := domain.ParseStepID(req.StepID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.service.Message(r.Context(), req.LessonID, step, req.Message)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Advance completes the current step and moves to the next one
func (h *InstructorHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req EnterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}

	step, err := domain.ParseStepID(req.StepID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.service.Advance(r.Context(), req.LessonID, step)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// End finishes the active session
func (h *InstructorHandler) End(w http.ResponseWriter, r *http.Request) {
	h.service.End(r.Context())
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}
