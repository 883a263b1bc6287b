package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/catalog"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// StepPublisher emits step completion events. Optional.
type StepPublisher interface {
	PublishStepCompleted(ctx context.Context, lessonID string, step domain.StepID) error
}

// ProgressHandler handles step progress endpoints
type ProgressHandler struct {
	catalog   *catalog.Service
	publisher StepPublisher
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(catalogService *catalog.Service, publisher StepPublisher) *ProgressHandler {
	return &ProgressHandler{
		catalog:   catalogService,
		publisher: publisher,
	}
}

// List returns all recorded step progress as raw, unaggregated rows
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	progress, err := h.catalog.ListProgress()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if progress == nil {
		progress = []*domain.StepProgress{}
	}

	WriteJSON(w, http.StatusOK, progress)
}

// RecordRequest is the body for recording a step
type RecordRequest struct {
	LessonID string `json:"lesson_id"`
	StepID   string `json:"step_id"`
	Status   string `json:"status"`
}

// Record upserts one step's status. Repeating a record is idempotent;
// conflicting writes resolve last-write-wins.
func (h *ProgressHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}

	step, err := domain.ParseStepID(req.StepID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	status := domain.StepStatus(req.Status)
	if req.Status == "" {
		status = domain.StatusCompleted
	}

	if _, err := h.catalog.RecordStep(req.LessonID, step, status); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if h.publisher != nil && status == domain.StatusCompleted {
		if err := h.publisher.PublishStepCompleted(r.Context(), req.LessonID, step); err != nil {
			slog.Warn("failed to publish step completion",
				"lesson_id", req.LessonID,
				"step_id", step,
				"error", err,
			)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
