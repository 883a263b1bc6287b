package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/catalog"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// CourseHandler handles course catalog endpoints
type CourseHandler struct {
	catalog *catalog.Service
	tutor   *ai.Tutor
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(catalogService *catalog.Service, tutor *ai.Tutor) *CourseHandler {
	return &CourseHandler{
		catalog: catalogService,
		tutor:   tutor,
	}
}

// List returns every course with fresh progress, as a bare array
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if courses == nil {
		courses = []*domain.Course{}
	}

	WriteJSON(w, http.StatusOK, courses)
}

// Get returns one course with fresh progress
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.GetCourse(r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, course)
}

// Import stores a new course definition
func (h *CourseHandler) Import(w http.ResponseWriter, r *http.Request) {
	var course domain.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		BadRequest(w, r, "invalid course payload")
		return
	}

	imported, err := h.catalog.ImportCourse(&course)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"id": imported.ID})
}

// ExtractRequest carries pasted course material
type ExtractRequest struct {
	Material string `json:"material"`
}

// Extract turns pasted material into a course and imports it
func (h *CourseHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}
	if req.Material == "" {
		BadRequest(w, r, "material is required")
		return
	}

	course, err := h.tutor.ExtractCurriculum(r.Context(), req.Material)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	imported, err := h.catalog.ImportCourse(course)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"id": imported.ID})
}
