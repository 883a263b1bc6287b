package catalog

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

type fakeCourseStore struct {
	courses map[string]*domain.Course
	saved   []*domain.Course
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{courses: make(map[string]*domain.Course)}
}

func (f *fakeCourseStore) Save(course *domain.Course) error {
	f.courses[course.ID] = course
	f.saved = append(f.saved, course)
	return nil
}

func (f *fakeCourseStore) Get(id string) (*domain.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return course, nil
}

func (f *fakeCourseStore) List() ([]*domain.Course, error) {
	var out []*domain.Course
	for _, c := range f.courses {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCourseStore) GetLesson(id string) (*domain.Lesson, error) {
	for _, course := range f.courses {
		for _, mod := range course.Modules {
			for i := range mod.Lessons {
				if mod.Lessons[i].ID == id {
					return &mod.Lessons[i], nil
				}
			}
		}
	}
	return nil, domain.ErrLessonNotFound
}

type fakeProgressStore struct {
	rows map[string]*domain.StepProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{rows: make(map[string]*domain.StepProgress)}
}

func (f *fakeProgressStore) key(lessonID string, step domain.StepID) string {
	return lessonID + "/" + string(step)
}

func (f *fakeProgressStore) Upsert(p *domain.StepProgress) error {
	f.rows[f.key(p.LessonID, p.StepID)] = p
	return nil
}

func (f *fakeProgressStore) List() ([]*domain.StepProgress, error) {
	var out []*domain.StepProgress
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProgressStore) CompletedCount(lessonIDs []string) (int, error) {
	count := 0
	for _, id := range lessonIDs {
		for _, step := range domain.Steps() {
			if p, ok := f.rows[f.key(id, step)]; ok && p.Status == domain.StatusCompleted {
				count++
			}
		}
	}
	return count, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService() (*Service, *fakeCourseStore, *fakeProgressStore) {
	courses := newFakeCourseStore()
	progress := newFakeProgressStore()
	return NewService(courses, progress, testLogger()), courses, progress
}

func importedCourse(t *testing.T, svc *Service, lessonsPerModule int) *domain.Course {
	t.Helper()

	course := &domain.Course{
		Title: "Test Course",
		Modules: []domain.Module{
			{Title: "Module A", Lessons: make([]domain.Lesson, lessonsPerModule)},
		},
	}
	for i := range course.Modules[0].Lessons {
		course.Modules[0].Lessons[i] = domain.Lesson{Title: "Lesson", Language: domain.LanguageJavaScript}
	}

	imported, err := svc.ImportCourse(course)
	if err != nil {
		t.Fatalf("ImportCourse() error = %v", err)
	}
	return imported
}

func TestImportCourseAssignsIDs(t *testing.T) {
	svc, _, _ := newTestService()

	course := importedCourse(t, svc, 2)

	if course.ID == "" {
		t.Error("course ID not assigned")
	}
	if course.Modules[0].ID == "" {
		t.Error("module ID not assigned")
	}
	if course.Modules[0].CourseID != course.ID {
		t.Error("module not linked to course")
	}
	for i, lesson := range course.Modules[0].Lessons {
		if lesson.ID == "" {
			t.Errorf("lesson %d ID not assigned", i)
		}
		if lesson.OrderIndex != i {
			t.Errorf("lesson %d OrderIndex = %d", i, lesson.OrderIndex)
		}
	}
}

func TestImportCourseValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name   string
		course *domain.Course
	}{
		{"nil course", nil},
		{"missing title", &domain.Course{Modules: []domain.Module{{Title: "M"}}}},
		{"no modules", &domain.Course{Title: "T"}},
		{"blank module title", &domain.Course{Title: "T", Modules: []domain.Module{{Title: "  "}}}},
		{
			"bad language",
			&domain.Course{Title: "T", Modules: []domain.Module{{
				Title:   "M",
				Lessons: []domain.Lesson{{Title: "L", Language: "cobol"}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportCourse(tt.course)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("ImportCourse() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCourseProgressComputation(t *testing.T) {
	svc, _, progress := newTestService()
	course := importedCourse(t, svc, 2) // 2 lessons, 10 steps total

	assertProgress := func(want int) {
		t.Helper()
		got, err := svc.GetCourse(course.ID)
		if err != nil {
			t.Fatalf("GetCourse() error = %v", err)
		}
		if got.Progress != want {
			t.Errorf("Progress = %d, want %d", got.Progress, want)
		}
	}

	// No progress yet.
	assertProgress(0)

	lessons := course.LessonIDs()

	// 3 of 10 steps complete: round(30).
	for _, step := range []domain.StepID{domain.StepExplanation, domain.StepExample, domain.StepGuided} {
		if _, err := svc.RecordStep(lessons[0], step, domain.StatusCompleted); err != nil {
			t.Fatalf("RecordStep() error = %v", err)
		}
	}
	assertProgress(30)

	// Recording the same step again changes nothing.
	if _, err := svc.RecordStep(lessons[0], domain.StepExample, domain.StatusCompleted); err != nil {
		t.Fatalf("RecordStep() error = %v", err)
	}
	assertProgress(30)

	// Complete everything.
	for _, lesson := range lessons {
		for _, step := range domain.Steps() {
			if _, err := svc.RecordStep(lesson, step, domain.StatusCompleted); err != nil {
				t.Fatalf("RecordStep() error = %v", err)
			}
		}
	}
	assertProgress(100)

	// Progress is not monotonic: un-completing a step lowers it.
	if _, err := svc.RecordStep(lessons[0], domain.StepFeedback, domain.StatusNotStarted); err != nil {
		t.Fatalf("RecordStep() error = %v", err)
	}
	assertProgress(90)

	if len(progress.rows) != 10 {
		t.Errorf("progress rows = %d, want 10", len(progress.rows))
	}
}

func TestCourseProgressEmptyCourse(t *testing.T) {
	svc, courses, _ := newTestService()

	courses.courses["empty"] = &domain.Course{ID: "empty", Title: "Empty"}

	got, err := svc.GetCourse("empty")
	if err != nil {
		t.Fatalf("GetCourse() error = %v", err)
	}
	if got.Progress != 0 {
		t.Errorf("Progress = %d, want 0 for course with no lessons", got.Progress)
	}
}

func TestRecordStepValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name   string
		lesson string
		step   domain.StepID
		status domain.StepStatus
	}{
		{"blank lesson", "  ", domain.StepExample, domain.StatusCompleted},
		{"unknown step", "l1", "quiz", domain.StatusCompleted},
		{"unknown status", "l1", domain.StepExample, "in_progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordStep(tt.lesson, tt.step, tt.status)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("RecordStep() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestListCoursesComputesFreshProgress(t *testing.T) {
	svc, _, _ := newTestService()
	course := importedCourse(t, svc, 1) // 1 lesson, 5 steps

	lessons := course.LessonIDs()
	if _, err := svc.RecordStep(lessons[0], domain.StepExplanation, domain.StatusCompleted); err != nil {
		t.Fatalf("RecordStep() error = %v", err)
	}

	listed, err := svc.ListCourses()
	if err != nil {
		t.Fatalf("ListCourses() error = %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("len(ListCourses()) = %d, want 1", len(listed))
	}
	if listed[0].Progress != 20 {
		t.Errorf("Progress = %d, want 20", listed[0].Progress)
	}
}
