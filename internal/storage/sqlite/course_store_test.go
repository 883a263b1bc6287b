package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

func testCourse(id string) *domain.Course {
	return &domain.Course{
		ID:          id,
		Title:       "JavaScript Basics",
		Description: "Variables, functions and control flow",
		ImageURL:    "https://example.com/js.png",
		CreatedAt:   time.Now(),
		Modules: []domain.Module{
			{
				ID:         id + "-m1",
				CourseID:   id,
				Title:      "Getting Started",
				OrderIndex: 0,
				Lessons: []domain.Lesson{
					{
						ID:             id + "-l1",
						ModuleID:       id + "-m1",
						Title:          "Variables",
						Concept:        "let and const",
						Example:        "let x = 1;",
						PracticeGuided: "declare a variable",
						Language:       domain.LanguageJavaScript,
						OrderIndex:     0,
					},
					{
						ID:         id + "-l2",
						ModuleID:   id + "-m1",
						Title:      "Functions",
						Concept:    "function declarations",
						Language:   domain.LanguageJavaScript,
						OrderIndex: 1,
					},
				},
			},
			{
				ID:         id + "-m2",
				CourseID:   id,
				Title:      "Styling",
				OrderIndex: 1,
				Lessons: []domain.Lesson{
					{
						ID:         id + "-l3",
						ModuleID:   id + "-m2",
						Title:      "Selectors",
						Language:   domain.LanguageCSS,
						OrderIndex: 0,
					},
				},
			},
		},
	}
}

func TestCourseStoreSaveAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewCourseStore(db)

	course := testCourse("c1")
	if err := store.Save(course); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get("c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.Title != course.Title {
		t.Errorf("Title = %q, want %q", got.Title, course.Title)
	}
	if len(got.Modules) != 2 {
		t.Fatalf("len(Modules) = %d, want 2", len(got.Modules))
	}
	if got.Modules[0].Title != "Getting Started" {
		t.Errorf("Modules[0].Title = %q", got.Modules[0].Title)
	}
	if len(got.Modules[0].Lessons) != 2 {
		t.Fatalf("len(Modules[0].Lessons) = %d, want 2", len(got.Modules[0].Lessons))
	}
	if got.Modules[0].Lessons[1].Title != "Functions" {
		t.Errorf("lesson order not preserved: got %q", got.Modules[0].Lessons[1].Title)
	}
	if got.Modules[1].Lessons[0].Language != domain.LanguageCSS {
		t.Errorf("Language = %q, want css", got.Modules[1].Lessons[0].Language)
	}
}

func TestCourseStoreGetNotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewCourseStore(db)

	_, err := store.Get("missing")
	if !errors.Is(err, domain.ErrCourseNotFound) {
		t.Errorf("Get() error = %v, want ErrCourseNotFound", err)
	}
}

func TestCourseStoreReimportReplaces(t *testing.T) {
	db := openTestDB(t)
	store := NewCourseStore(db)

	if err := store.Save(testCourse("c1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	replacement := testCourse("c1")
	replacement.Title = "JavaScript Basics v2"
	replacement.Modules = replacement.Modules[:1]
	if err := store.Save(replacement); err != nil {
		t.Fatalf("re-Save() error = %v", err)
	}

	got, err := store.Get("c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "JavaScript Basics v2" {
		t.Errorf("Title = %q after re-import", got.Title)
	}
	if len(got.Modules) != 1 {
		t.Errorf("len(Modules) = %d, want 1 after re-import", len(got.Modules))
	}
}

func TestCourseStoreList(t *testing.T) {
	db := openTestDB(t)
	store := NewCourseStore(db)

	courses, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(courses) != 0 {
		t.Fatalf("List() on empty db = %d courses", len(courses))
	}

	if err := store.Save(testCourse("c1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(testCourse("c2")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	courses, err = store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(courses))
	}
	if len(courses[0].Modules) != 2 {
		t.Errorf("listed course missing modules")
	}
}

func TestCourseStoreLessonIDs(t *testing.T) {
	db := openTestDB(t)
	store := NewCourseStore(db)

	if err := store.Save(testCourse("c1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ids, err := store.LessonIDs("c1")
	if err != nil {
		t.Fatalf("LessonIDs() error = %v", err)
	}
	want := []string{"c1-l1", "c1-l2", "c1-l3"}
	if len(ids) != len(want) {
		t.Fatalf("len(ids) = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestCourseStoreGetLesson(t *testing.T) {
	db := openTestDB(t)
	store := NewCourseStore(db)

	if err := store.Save(testCourse("c1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	lesson, err := store.GetLesson("c1-l1")
	if err != nil {
		t.Fatalf("GetLesson() error = %v", err)
	}
	if lesson.Title != "Variables" {
		t.Errorf("Title = %q, want Variables", lesson.Title)
	}
	if lesson.Language != domain.LanguageJavaScript {
		t.Errorf("Language = %q, want javascript", lesson.Language)
	}

	if _, err := store.GetLesson("missing"); !errors.Is(err, domain.ErrLessonNotFound) {
		t.Errorf("GetLesson(missing) error = %v, want ErrLessonNotFound", err)
	}
}
