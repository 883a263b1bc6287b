package domain

import (
	"fmt"
	"time"
)

// Language identifies the code runner strategy for a lesson.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguagePython     Language = "python"
)

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageJavaScript, LanguageHTML, LanguageCSS, LanguagePython:
		return true
	default:
		return false
	}
}

// String returns the language as a string
func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts a string to a Language
func ParseLanguage(s string) (Language, error) {
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("unsupported language: %s", s)
	}
	return lang, nil
}

// Course is the top of the catalog hierarchy. Courses are immutable after
// import except for full re-import; they are never deleted in normal flow.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	Modules     []Module  `json:"modules"`
	Progress    int       `json:"progress"` // derived, never persisted
	CreatedAt   time.Time `json:"created_at"`
}

// Module groups lessons within a course, ordered by OrderIndex.
type Module struct {
	ID         string   `json:"id"`
	CourseID   string   `json:"course_id"`
	Title      string   `json:"title"`
	OrderIndex int      `json:"order_index"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is a single teachable unit with content for each of the five steps.
type Lesson struct {
	ID                  string   `json:"id"`
	ModuleID            string   `json:"module_id"`
	Title               string   `json:"title"`
	Concept             string   `json:"concept"`
	Example             string   `json:"example"`
	PracticeGuided      string   `json:"practice_guided"`
	PracticeIndependent string   `json:"practice_independent"`
	Language            Language `json:"language"`
	OrderIndex          int      `json:"order_index"`
}

// LessonIDs returns the ids of every lesson in the course, in module and
// lesson order.
func (c *Course) LessonIDs() []string {
	var ids []string
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// LessonCount returns the total number of lessons across all modules.
func (c *Course) LessonCount() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}
