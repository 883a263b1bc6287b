package catalog

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// CourseStore persists courses.
type CourseStore interface {
	Save(course *domain.Course) error
	Get(id string) (*domain.Course, error)
	List() ([]*domain.Course, error)
	GetLesson(id string) (*domain.Lesson, error)
}

// ProgressStore persists step completion records.
type ProgressStore interface {
	Upsert(p *domain.StepProgress) error
	List() ([]*domain.StepProgress, error)
	CompletedCount(lessonIDs []string) (int, error)
}

// Service manages the course catalog and learning progress.
type Service struct {
	courses  CourseStore
	progress ProgressStore
	logger   *slog.Logger
}

// NewService creates a catalog service.
func NewService(courses CourseStore, progress ProgressStore, logger *slog.Logger) *Service {
	return &Service{
		courses:  courses,
		progress: progress,
		logger:   logger,
	}
}

// ListCourses returns all courses with their progress computed from the
// current progress log. Progress is never stored, so it reflects every
// write made since the last read.
func (s *Service) ListCourses() ([]*domain.Course, error) {
	courses, err := s.courses.List()
	if err != nil {
		return nil, err
	}

	for _, course := range courses {
		pct, err := s.courseProgress(course)
		if err != nil {
			return nil, err
		}
		course.Progress = pct
	}
	return courses, nil
}

// GetCourse returns a single course with computed progress.
func (s *Service) GetCourse(id string) (*domain.Course, error) {
	course, err := s.courses.Get(id)
	if err != nil {
		return nil, err
	}

	pct, err := s.courseProgress(course)
	if err != nil {
		return nil, err
	}
	course.Progress = pct
	return course, nil
}

// ImportCourse validates a course and persists it. Missing ids are
// assigned, module and lesson order indexes are normalized to their
// position in the document.
func (s *Service) ImportCourse(course *domain.Course) (*domain.Course, error) {
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	course.CreatedAt = time.Now()

	for mi := range course.Modules {
		mod := &course.Modules[mi]
		if mod.ID == "" {
			mod.ID = uuid.New().String()
		}
		mod.CourseID = course.ID
		mod.OrderIndex = mi

		for li := range mod.Lessons {
			lesson := &mod.Lessons[li]
			if lesson.ID == "" {
				lesson.ID = uuid.New().String()
			}
			lesson.ModuleID = mod.ID
			lesson.OrderIndex = li
			if lesson.Language == "" {
				lesson.Language = domain.LanguageJavaScript
			}
		}
	}

	if err := s.courses.Save(course); err != nil {
		return nil, err
	}

	s.logger.Info("course imported",
		"course_id", course.ID,
		"title", course.Title,
		"lessons", course.LessonCount())

	return course, nil
}

// RecordStep writes one step status. Repeated writes for the same
// (lesson, step) overwrite the previous row.
func (s *Service) RecordStep(lessonID string, step domain.StepID, status domain.StepStatus) (*domain.StepProgress, error) {
	if strings.TrimSpace(lessonID) == "" {
		return nil, fmt.Errorf("%w: lesson_id is required", domain.ErrValidation)
	}
	if !step.IsValid() {
		return nil, fmt.Errorf("%w: unknown step %q", domain.ErrValidation, step)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	p := &domain.StepProgress{
		LessonID:  lessonID,
		StepID:    step,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	if err := s.progress.Upsert(p); err != nil {
		return nil, err
	}

	s.logger.Debug("step recorded", "lesson_id", lessonID, "step", step, "status", status)
	return p, nil
}

// ListProgress returns the raw progress log.
func (s *Service) ListProgress() ([]*domain.StepProgress, error) {
	return s.progress.List()
}

// GetLesson returns a single lesson.
func (s *Service) GetLesson(id string) (*domain.Lesson, error) {
	return s.courses.GetLesson(id)
}

// courseProgress computes the completion percentage of a course. Each
// lesson contributes a fixed number of steps to the denominator, so a
// course with no lessons is always at 0.
func (s *Service) courseProgress(course *domain.Course) (int, error) {
	lessonIDs := course.LessonIDs()
	total := len(lessonIDs) * domain.StepsPerLesson
	if total == 0 {
		return 0, nil
	}

	completed, err := s.progress.CompletedCount(lessonIDs)
	if err != nil {
		return 0, err
	}

	return int(math.Round(float64(completed) / float64(total) * 100)), nil
}

func validateCourse(course *domain.Course) error {
	if course == nil {
		return fmt.Errorf("%w: course is required", domain.ErrValidation)
	}
	if strings.TrimSpace(course.Title) == "" {
		return fmt.Errorf("%w: course title is required", domain.ErrValidation)
	}
	if len(course.Modules) == 0 {
		return fmt.Errorf("%w: course needs at least one module", domain.ErrValidation)
	}

	for mi, mod := range course.Modules {
		if strings.TrimSpace(mod.Title) == "" {
			return fmt.Errorf("%w: module %d title is required", domain.ErrValidation, mi)
		}
		for li, lesson := range mod.Lessons {
			if strings.TrimSpace(lesson.Title) == "" {
				return fmt.Errorf("%w: lesson %d in module %d title is required", domain.ErrValidation, li, mi)
			}
			if lesson.Language != "" && !lesson.Language.IsValid() {
				return fmt.Errorf("%w: unsupported language %q", domain.ErrValidation, lesson.Language)
			}
		}
	}
	return nil
}
