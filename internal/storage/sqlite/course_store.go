package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// CourseStore implements catalog persistence backed by SQLite.
type CourseStore struct {
	db *DB
}

// NewCourseStore creates a new SQLite-backed course store.
func NewCourseStore(db *DB) *CourseStore {
	return &CourseStore{db: db}
}

// Save persists a course with its nested modules and lessons in one
// transaction. Saving an existing id replaces the whole course (re-import).
func (s *CourseStore) Save(course *domain.Course) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Full re-import: child rows go with the course via ON DELETE CASCADE.
	if _, err := tx.Exec("DELETE FROM courses WHERE id = ?", course.ID); err != nil {
		return fmt.Errorf("clear course: %w", err)
	}

	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO courses (id, title, description, image_url, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		course.ID, course.Title, course.Description, course.ImageURL, course.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}

	for _, mod := range course.Modules {
		_, err = tx.Exec(`
			INSERT INTO modules (id, course_id, title, order_index)
			VALUES (?, ?, ?, ?)`,
			mod.ID, course.ID, mod.Title, mod.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("insert module %s: %w", mod.ID, err)
		}

		for _, lesson := range mod.Lessons {
			_, err = tx.Exec(`
				INSERT INTO lessons (id, module_id, title, concept, example,
					practice_guided, practice_independent, language, order_index)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				lesson.ID, mod.ID, lesson.Title, lesson.Concept, lesson.Example,
				lesson.PracticeGuided, lesson.PracticeIndependent,
				string(lesson.Language), lesson.OrderIndex,
			)
			if err != nil {
				return fmt.Errorf("insert lesson %s: %w", lesson.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Get retrieves a course with its modules and lessons.
func (s *CourseStore) Get(id string) (*domain.Course, error) {
	row := s.db.QueryRow(`
		SELECT id, title, description, image_url, created_at
		FROM courses WHERE id = ?`, id)

	course, err := scanCourse(row)
	if err != nil {
		return nil, err
	}

	if err := s.loadModules(course); err != nil {
		return nil, err
	}
	return course, nil
}

// List retrieves all courses with nested modules and lessons, oldest first.
func (s *CourseStore) List() ([]*domain.Course, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, image_url, created_at
		FROM courses ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, course := range courses {
		if err := s.loadModules(course); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// LessonIDs returns the set of lesson ids belonging to a course.
func (s *CourseStore) LessonIDs(courseID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT l.id
		FROM lessons l
		JOIN modules m ON l.module_id = m.id
		WHERE m.course_id = ?
		ORDER BY m.order_index, l.order_index`, courseID)
	if err != nil {
		return nil, fmt.Errorf("lesson ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetLesson retrieves a single lesson by id.
func (s *CourseStore) GetLesson(id string) (*domain.Lesson, error) {
	row := s.db.QueryRow(`
		SELECT id, module_id, title, concept, example, practice_guided,
			practice_independent, language, order_index
		FROM lessons WHERE id = ?`, id)

	var l domain.Lesson
	var lang string
	err := row.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Concept, &l.Example,
		&l.PracticeGuided, &l.PracticeIndependent, &lang, &l.OrderIndex)
	if err == sql.ErrNoRows {
		return nil, domain.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	l.Language = domain.Language(lang)
	return &l, nil
}

func (s *CourseStore) loadModules(course *domain.Course) error {
	rows, err := s.db.Query(`
		SELECT id, course_id, title, order_index
		FROM modules WHERE course_id = ? ORDER BY order_index, id`, course.ID)
	if err != nil {
		return fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()

	course.Modules = []domain.Module{}
	for rows.Next() {
		var m domain.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.OrderIndex); err != nil {
			return err
		}
		course.Modules = append(course.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range course.Modules {
		if err := s.loadLessons(&course.Modules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *CourseStore) loadLessons(mod *domain.Module) error {
	rows, err := s.db.Query(`
		SELECT id, module_id, title, concept, example, practice_guided,
			practice_independent, language, order_index
		FROM lessons WHERE module_id = ? ORDER BY order_index, id`, mod.ID)
	if err != nil {
		return fmt.Errorf("load lessons: %w", err)
	}
	defer rows.Close()

	mod.Lessons = []domain.Lesson{}
	for rows.Next() {
		var l domain.Lesson
		var lang string
		err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Concept, &l.Example,
			&l.PracticeGuided, &l.PracticeIndependent, &lang, &l.OrderIndex)
		if err != nil {
			return err
		}
		l.Language = domain.Language(lang)
		mod.Lessons = append(mod.Lessons, l)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*domain.Course, error) {
	var c domain.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.ImageURL, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return &c, nil
}
