package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// CourseFile represents the YAML structure for a course pack
type CourseFile struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
	Modules     []struct {
		ID      string `yaml:"id"`
		Title   string `yaml:"title"`
		Lessons []struct {
			ID                  string `yaml:"id"`
			Title               string `yaml:"title"`
			Concept             string `yaml:"concept"`
			Example             string `yaml:"example"`
			PracticeGuided      string `yaml:"practice_guided"`
			PracticeIndependent string `yaml:"practice_independent"`
			Language            string `yaml:"language"`
		} `yaml:"lessons"`
	} `yaml:"modules"`
}

// Loader reads course packs from YAML files
type Loader struct {
	basePath string
	logger   *slog.Logger
}

// NewLoader creates a new course loader
func NewLoader(basePath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{basePath: basePath, logger: logger}
}

// LoadCourse loads a single course from a YAML file
func (l *Loader) LoadCourse(path string) (*domain.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}

	var cf CourseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse course file: %w", err)
	}

	course := &domain.Course{
		ID:          cf.ID,
		Title:       cf.Title,
		Description: cf.Description,
		ImageURL:    cf.ImageURL,
		Modules:     make([]domain.Module, len(cf.Modules)),
	}

	for mi, mf := range cf.Modules {
		mod := domain.Module{
			ID:         mf.ID,
			Title:      mf.Title,
			OrderIndex: mi,
			Lessons:    make([]domain.Lesson, len(mf.Lessons)),
		}
		for li, lf := range mf.Lessons {
			mod.Lessons[li] = domain.Lesson{
				ID:                  lf.ID,
				Title:               lf.Title,
				Concept:             lf.Concept,
				Example:             lf.Example,
				PracticeGuided:      lf.PracticeGuided,
				PracticeIndependent: lf.PracticeIndependent,
				Language:            domain.Language(lf.Language),
				OrderIndex:          li,
			}
		}
		course.Modules[mi] = mod
	}

	return course, nil
}

// LoadAll loads every .yaml course file in the base directory. A
// missing directory means no bundled courses, which is fine; a file
// that fails to parse is skipped so one broken pack cannot block the
// rest.
func (l *Loader) LoadAll() ([]*domain.Course, error) {
	entries, err := os.ReadDir(l.basePath)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Info("no courses directory, skipping bundled courses",
			slog.String("path", l.basePath))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read courses directory: %w", err)
	}

	var courses []*domain.Course
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		course, err := l.LoadCourse(filepath.Join(l.basePath, entry.Name()))
		if err != nil {
			l.logger.Warn("skipping unreadable course file",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		courses = append(courses, course)
	}

	return courses, nil
}
