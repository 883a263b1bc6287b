package mcp

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/catalog"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
	"github.com/akshad113/loom-ai-instructor/internal/runner"
	"github.com/akshad113/loom-ai-instructor/internal/storage/sqlite"
	"github.com/akshad113/loom-ai-instructor/internal/workspace"
)

// setupTestServer creates a test MCP server with minimal configuration
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "loom.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cat := catalog.NewService(sqlite.NewCourseStore(db), sqlite.NewProgressStore(db), logger)

	course := &domain.Course{
		Title: "JavaScript Basics",
		Modules: []domain.Module{{
			Title: "Getting Started",
			Lessons: []domain.Lesson{{
				ID:       "lesson-1",
				Title:    "Variables",
				Concept:  "Variables hold values.",
				Example:  "let x = 1;",
				Language: domain.LanguageJavaScript,
			}},
		}},
	}
	if _, err := cat.ImportCourse(course); err != nil {
		t.Fatalf("import course: %v", err)
	}

	run := runner.NewService(cat, logger)
	ws := workspace.New()
	tutor := ai.NewTutor(&mockProvider{}, logger)

	return NewServer(Config{
		Catalog:   cat,
		Runner:    run,
		Workspace: ws,
		Tutor:     tutor,
	})
}

// mockProvider is a simple mock AI provider for testing
type mockProvider struct{}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Generate(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	return &ai.Response{
		Content: "Mock response",
	}, nil
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)

	if server == nil {
		t.Fatal("expected non-nil server")
	}

	if server.mcpServer == nil {
		t.Fatal("expected non-nil MCP server")
	}

	if server.catalog == nil {
		t.Fatal("expected non-nil catalog service")
	}

	if server.runner == nil {
		t.Fatal("expected non-nil runner service")
	}
}

func TestServerConfig(t *testing.T) {
	cfg := Config{}

	// Test with nil services - should not panic
	server := NewServer(cfg)
	if server == nil {
		t.Fatal("expected non-nil server even with nil config")
	}
}

func TestGetMCPServer(t *testing.T) {
	server := setupTestServer(t)

	mcpServer := server.GetMCPServer()
	if mcpServer == nil {
		t.Fatal("expected non-nil underlying MCP server")
	}
}

func TestHandleCourses(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleCourses(context.Background(), CoursesInput{})
	if err != nil {
		t.Fatalf("handleCourses: %v", err)
	}

	if len(out.Courses) != 1 {
		t.Fatalf("expected 1 course, got %d", len(out.Courses))
	}
	if out.Courses[0].Title != "JavaScript Basics" {
		t.Errorf("unexpected title %q", out.Courses[0].Title)
	}
	if out.Courses[0].Lessons != 1 {
		t.Errorf("expected 1 lesson, got %d", out.Courses[0].Lessons)
	}
	if out.Courses[0].Progress != 0 {
		t.Errorf("expected zero progress, got %d", out.Courses[0].Progress)
	}
}

func TestHandleLessonSelectsStepContent(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		step    string
		content string
	}{
		{"", "Variables hold values."},
		{"explanation", "Variables hold values."},
		{"example", "let x = 1;"},
		{"feedback", ""},
	}

	for _, tt := range tests {
		out, err := server.handleLesson(context.Background(), LessonInput{
			LessonID: "lesson-1",
			Step:     tt.step,
		})
		if err != nil {
			t.Fatalf("step %q: %v", tt.step, err)
		}
		if out.Content != tt.content {
			t.Errorf("step %q: content = %q, want %q", tt.step, out.Content, tt.content)
		}
	}
}

func TestHandleLessonUnknownStep(t *testing.T) {
	server := setupTestServer(t)

	_, err := server.handleLesson(context.Background(), LessonInput{
		LessonID: "lesson-1",
		Step:     "revision",
	})
	if err == nil {
		t.Fatal("expected error for unknown step")
	}
}

func TestHandleProgress(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleProgress(context.Background(), ProgressInput{
		LessonID: "lesson-1",
		Step:     "explanation",
	})
	if err != nil {
		t.Fatalf("handleProgress: %v", err)
	}

	if out.Status != string(domain.StatusCompleted) {
		t.Errorf("status = %q, want completed", out.Status)
	}

	courses, err := server.handleCourses(context.Background(), CoursesInput{})
	if err != nil {
		t.Fatalf("handleCourses: %v", err)
	}
	if courses.Courses[0].Progress != 20 {
		t.Errorf("progress = %d, want 20", courses.Courses[0].Progress)
	}
}

func TestHandleCodeRoundTrip(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleCode(context.Background(), CodeInput{
		LessonID: "lesson-1",
		Code:     "console.log('hi');",
	})
	if err != nil {
		t.Fatalf("handleCode write: %v", err)
	}
	if out.Code != "console.log('hi');" {
		t.Errorf("unexpected code %q", out.Code)
	}

	read, err := server.handleCode(context.Background(), CodeInput{LessonID: "lesson-1"})
	if err != nil {
		t.Fatalf("handleCode read: %v", err)
	}
	if read.Code != "console.log('hi');" {
		t.Errorf("read back %q", read.Code)
	}
}

func TestHandleAsk(t *testing.T) {
	server := setupTestServer(t)

	out, err := server.handleAsk(context.Background(), AskInput{Message: "What is a closure?"})
	if err != nil {
		t.Fatalf("handleAsk: %v", err)
	}
	if out.Reply != "Mock response" {
		t.Errorf("reply = %q", out.Reply)
	}
}

func TestHandleAskEmptyMessage(t *testing.T) {
	server := setupTestServer(t)

	if _, err := server.handleAsk(context.Background(), AskInput{Message: "  "}); err == nil {
		t.Fatal("expected error for empty message")
	}
}
