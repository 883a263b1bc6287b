package mcp

import (
	"context"
	"fmt"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/catalog"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
	"github.com/akshad113/loom-ai-instructor/internal/runner"
	"github.com/akshad113/loom-ai-instructor/internal/workspace"
)

// Server wraps the MCP server with Loom functionality
type Server struct {
	mcpServer *server.Server
	catalog   *catalog.Service
	runner    *runner.Service
	workspace *workspace.Workspace
	tutor     *ai.Tutor
}

// Config contains configuration for the MCP server
type Config struct {
	Catalog   *catalog.Service
	Runner    *runner.Service
	Workspace *workspace.Workspace
	Tutor     *ai.Tutor
}

// NewServer creates a new MCP server for Loom
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog:   cfg.Catalog,
		runner:    cfg.Runner,
		workspace: cfg.Workspace,
		tutor:     cfg.Tutor,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "loom",
		Version: "0.1.0",
	}, server.WithInstructions(`
Loom is an interactive AI coding tutor.
Courses break down into modules and lessons; every lesson walks through
five fixed steps: explanation, example, guided, independent, feedback.

Available tools:
- loom_courses: List imported courses with completion progress
- loom_lesson: Fetch lesson content for a given step
- loom_progress: Record a lesson step as completed
- loom_code: Read or replace the editor buffer for a lesson
- loom_run: Execute the editor buffer (or provided code) for a lesson
- loom_ask: Ask the tutor a free-form question
`))

	// Register tools
	s.registerTools()

	return s
}

// registerTools registers all Loom MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("loom_courses").
		Description("List imported courses with lesson counts and completion progress.").
		Handler(s.handleCourses)

	s.mcpServer.Tool("loom_lesson").
		Description("Fetch the content of a lesson for a given step.").
		Handler(s.handleLesson)

	s.mcpServer.Tool("loom_progress").
		Description("Record a lesson step as completed.").
		Handler(s.handleProgress)

	s.mcpServer.Tool("loom_code").
		Description("Read the editor buffer for a lesson, or replace it when code is provided.").
		Handler(s.handleCode)

	s.mcpServer.Tool("loom_run").
		Description("Execute the editor buffer for a lesson. Provided code replaces the buffer first.").
		Handler(s.handleRun)

	s.mcpServer.Tool("loom_ask").
		Description("Ask the tutor a free-form question outside any lesson.").
		Handler(s.handleAsk)
}

// Input/Output types for tools

type CoursesInput struct{}

type CourseSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Lessons  int    `json:"lessons"`
	Progress int    `json:"progress"`
}

type CoursesOutput struct {
	Courses []CourseSummary `json:"courses"`
}

type LessonInput struct {
	LessonID string `json:"lesson_id" jsonschema:"description=Lesson ID from loom_courses"`
	Step     string `json:"step,omitempty" jsonschema:"description=Lesson step,enum=explanation,enum=example,enum=guided,enum=independent,enum=feedback"`
}

type LessonOutput struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Step     string `json:"step"`
	Content  string `json:"content"`
}

type ProgressInput struct {
	LessonID string `json:"lesson_id" jsonschema:"description=Lesson ID"`
	Step     string `json:"step" jsonschema:"description=Lesson step to mark completed,enum=explanation,enum=example,enum=guided,enum=independent,enum=feedback"`
}

type ProgressOutput struct {
	LessonID string `json:"lesson_id"`
	Step     string `json:"step"`
	Status   string `json:"status"`
}

type CodeInput struct {
	LessonID string `json:"lesson_id" jsonschema:"description=Lesson ID"`
	Code     string `json:"code,omitempty" jsonschema:"description=New buffer content; omit to read the current buffer"`
}

type CodeOutput struct {
	LessonID string `json:"lesson_id"`
	Code     string `json:"code"`
}

type RunToolInput struct {
	LessonID string `json:"lesson_id" jsonschema:"description=Lesson ID"`
	Code     string `json:"code,omitempty" jsonschema:"description=Code to run; replaces the editor buffer when set"`
}

type RunToolOutput struct {
	RunID    string `json:"run_id"`
	State    string `json:"state"`
	Output   string `json:"output"`
	Preview  string `json:"preview,omitempty"`
	Language string `json:"language"`
}

type AskInput struct {
	Message string `json:"message" jsonschema:"description=Question for the tutor"`
}

type AskOutput struct {
	Reply string `json:"reply"`
}

// Tool handlers

func (s *Server) handleCourses(ctx context.Context, input CoursesInput) (CoursesOutput, error) {
	courses, err := s.catalog.ListCourses()
	if err != nil {
		return CoursesOutput{}, fmt.Errorf("list courses: %w", err)
	}

	out := CoursesOutput{Courses: make([]CourseSummary, 0, len(courses))}
	for _, c := range courses {
		out.Courses = append(out.Courses, CourseSummary{
			ID:       c.ID,
			Title:    c.Title,
			Lessons:  len(c.LessonIDs()),
			Progress: c.Progress,
		})
	}
	return out, nil
}

func (s *Server) handleLesson(ctx context.Context, input LessonInput) (LessonOutput, error) {
	lesson, err := s.catalog.GetLesson(input.LessonID)
	if err != nil {
		return LessonOutput{}, fmt.Errorf("lesson not found: %w", err)
	}

	step := domain.StepExplanation
	if input.Step != "" {
		step, err = domain.ParseStepID(input.Step)
		if err != nil {
			return LessonOutput{}, err
		}
	}

	return LessonOutput{
		LessonID: lesson.ID,
		Title:    lesson.Title,
		Language: string(lesson.Language),
		Step:     string(step),
		Content:  stepContent(lesson, step),
	}, nil
}

// stepContent selects the lesson field backing a step. The feedback step has
// no authored content; the tutor generates it from the learner's work.
func stepContent(lesson *domain.Lesson, step domain.StepID) string {
	switch step {
	case domain.StepExample:
		return lesson.Example
	case domain.StepGuided:
		return lesson.PracticeGuided
	case domain.StepIndependent:
		return lesson.PracticeIndependent
	case domain.StepFeedback:
		return ""
	default:
		return lesson.Concept
	}
}

func (s *Server) handleProgress(ctx context.Context, input ProgressInput) (ProgressOutput, error) {
	step, err := domain.ParseStepID(input.Step)
	if err != nil {
		return ProgressOutput{}, err
	}

	progress, err := s.catalog.RecordStep(input.LessonID, step, domain.StatusCompleted)
	if err != nil {
		return ProgressOutput{}, fmt.Errorf("record step: %w", err)
	}

	return ProgressOutput{
		LessonID: progress.LessonID,
		Step:     string(progress.StepID),
		Status:   string(progress.Status),
	}, nil
}

func (s *Server) handleCode(ctx context.Context, input CodeInput) (CodeOutput, error) {
	if input.LessonID == "" {
		return CodeOutput{}, fmt.Errorf("lesson_id is required")
	}

	if input.Code != "" {
		s.workspace.Set(input.LessonID, input.Code)
	}

	return CodeOutput{
		LessonID: input.LessonID,
		Code:     s.workspace.Get(input.LessonID),
	}, nil
}

func (s *Server) handleRun(ctx context.Context, input RunToolInput) (RunToolOutput, error) {
	if input.LessonID == "" {
		return RunToolOutput{}, fmt.Errorf("lesson_id is required")
	}

	code := input.Code
	if code != "" {
		s.workspace.Set(input.LessonID, code)
	} else {
		code = s.workspace.Get(input.LessonID)
	}

	run, err := s.runner.Execute(ctx, input.LessonID, code)
	if err != nil {
		return RunToolOutput{}, fmt.Errorf("run failed: %w", err)
	}

	return RunToolOutput{
		RunID:    run.ID,
		State:    string(run.State),
		Output:   run.Output,
		Preview:  run.Preview,
		Language: string(run.Language),
	}, nil
}

func (s *Server) handleAsk(ctx context.Context, input AskInput) (AskOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return AskOutput{}, fmt.Errorf("message is required")
	}

	reply, err := s.tutor.Chat(ctx, input.Message)
	if err != nil {
		return AskOutput{}, fmt.Errorf("tutor unavailable: %w", err)
	}

	return AskOutput{Reply: reply}, nil
}

// ServeStdio starts the MCP server on stdio (for editor integration)
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
