package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/catalog"
	"github.com/akshad113/loom-ai-instructor/internal/config"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
	"github.com/akshad113/loom-ai-instructor/internal/instructor"
	"github.com/akshad113/loom-ai-instructor/internal/queue"
	"github.com/akshad113/loom-ai-instructor/internal/runner"
	"github.com/akshad113/loom-ai-instructor/internal/storage/postgres"
	"github.com/akshad113/loom-ai-instructor/internal/storage/sqlite"
	"github.com/akshad113/loom-ai-instructor/internal/workspace"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	DB         *sqlite.DB
	Catalog    *catalog.Service
	Settings   *sqlite.SettingsStore
	Workspace  *workspace.Workspace
	Runner     *runner.Service
	Python     *runner.PythonRuntime
	Instructor *instructor.Service
	Tutor      *ai.Tutor
	Providers  *ai.Registry
	Archive    *postgres.Archive
	Queue      *queue.Connection
	Producer   *queue.Producer
	Consumer   *queue.Consumer
	Steps      *queue.StepConsumer
	Logger     *slog.Logger
}

// AppConfig holds configuration for application initialization
type AppConfig struct {
	Config *config.Config
	DB     *sqlite.DB
	Logger *slog.Logger
}

// NewApp creates a new application instance with all dependencies wired
func NewApp(ctx context.Context, cfg AppConfig) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		Config: cfg.Config,
		DB:     cfg.DB,
		Logger: logger,
	}

	// Stores and catalog
	courseStore := sqlite.NewCourseStore(cfg.DB)
	progressStore := sqlite.NewProgressStore(cfg.DB)
	app.Settings = sqlite.NewSettingsStore(cfg.DB)
	app.Catalog = catalog.NewService(courseStore, progressStore, logger)

	if cfg.Config.CoursesPath != "" {
		if err := loadCourses(app.Catalog, cfg.Config.CoursesPath, logger); err != nil {
			return nil, err
		}
	}

	// Shared editor buffer
	app.Workspace = workspace.New()

	// AI providers and tutor
	app.Providers = ai.NewRegistry()
	if err := initAIProviders(app.Providers, cfg.Config, logger); err != nil {
		return nil, fmt.Errorf("init AI providers: %w", err)
	}
	provider, err := app.Providers.Default()
	if err != nil {
		return nil, fmt.Errorf("no AI provider available: %w", err)
	}
	app.Tutor = ai.NewTutor(provider, logger)

	// Runner: one executor per language
	app.Runner = runner.NewService(app.Catalog, logger)
	app.Runner.RegisterExecutor(domain.LanguageJavaScript,
		runner.NewNodeExecutor(cfg.Config.NodePath, time.Duration(cfg.Config.RunnerTimeout)*time.Second))
	app.Runner.RegisterExecutor(domain.LanguageHTML, runner.NewPreviewExecutor(domain.LanguageHTML))
	app.Runner.RegisterExecutor(domain.LanguageCSS, runner.NewPreviewExecutor(domain.LanguageCSS))

	// Python needs Docker; without it python lessons report the runtime
	// as unavailable instead of failing app startup.
	if backend, err := runner.NewDockerBackend(); err != nil {
		logger.Warn("docker unavailable, python runs disabled", slog.String("error", err.Error()))
	} else {
		app.Python = runner.NewPythonRuntime(backend, runner.PythonConfig{
			Image:      cfg.Config.RunnerImage,
			MemoryMB:   cfg.Config.RunnerMemoryMB,
			CPULimit:   cfg.Config.RunnerCPULimit,
			NetworkOff: true,
			Timeout:    time.Duration(cfg.Config.RunnerTimeout) * time.Second,
		}, logger)
		app.Runner.RegisterExecutor(domain.LanguagePython, app.Python)
	}

	app.Runner.SetReviewer(&feedbackReviewer{tutor: app.Tutor, logger: logger})

	// Instructor session with speech. Only gemini can synthesize; other
	// providers leave the local voice in charge from the start.
	var synth ai.Synthesizer
	if cfg.Config.AIProvider == "gemini" {
		synth, _ = provider.(ai.Synthesizer)
	}
	speech := instructor.NewSpeech(synth, cfg.Config.TTSSampleRate)
	var archiver instructor.Archiver
	if cfg.Config.ArchiveURL != "" {
		archive, err := postgres.NewArchive(ctx, cfg.Config.ArchiveURL)
		if err != nil {
			return nil, fmt.Errorf("connect transcript archive: %w", err)
		}
		app.Archive = archive
		archiver = archive
	}
	app.Instructor = instructor.NewService(app.Tutor, app.Catalog, app.Workspace, speech, archiver, logger)

	// Event queue: optional, enables async run feedback
	if cfg.Config.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.Config.RabbitMQURL)
		if err != nil {
			return nil, fmt.Errorf("connect queue: %w", err)
		}
		app.Queue = conn
		app.Producer = queue.NewProducer(conn)
		app.Runner.SetPublisher(app.Producer)

		app.Consumer = queue.NewConsumer(conn, app.handleRunFinished, queue.DefaultConsumerConfig())
		if err := app.Consumer.Start(ctx); err != nil {
			return nil, fmt.Errorf("start feedback consumer: %w", err)
		}

		app.Steps = queue.NewStepConsumer(conn, app.handleStepCompleted)
		if err := app.Steps.Start(ctx); err != nil {
			return nil, fmt.Errorf("start step consumer: %w", err)
		}
	}

	return app, nil
}

// handleRunFinished generates instructor feedback for a finished run.
func (a *App) handleRunFinished(ctx context.Context, event *queue.RunFinishedEvent) error {
	lesson, err := a.Catalog.GetLesson(event.LessonID)
	if err != nil {
		return err
	}

	step := domain.StepIndependent
	if active := a.Instructor.Active(); active != nil && active.LessonID == event.LessonID {
		step = active.Step
	}

	feedback, err := a.Tutor.Feedback(ctx, &ai.FeedbackInput{
		Lesson: lesson,
		Step:   step,
		Code:   a.Workspace.Get(event.LessonID),
		Output: event.Output,
		Failed: event.State == domain.RunFailed,
	})
	if err != nil {
		return err
	}

	a.Logger.Info("run feedback",
		slog.String("run_id", event.RunID),
		slog.String("lesson_id", event.LessonID),
		slog.Bool("is_correct", feedback.IsCorrect),
		slog.String("feedback", feedback.Feedback),
	)
	return nil
}

// handleStepCompleted keeps the instructor session in line with step
// completions recorded through the progress API.
func (a *App) handleStepCompleted(event *queue.StepCompletedEvent) {
	a.Instructor.StepCompleted(event.LessonID, event.StepID)
}

// feedbackReviewer asks the tutor to review a finished run and logs the
// verdict. Used when no queue is configured; failures are swallowed by
// the runner.
type feedbackReviewer struct {
	tutor  *ai.Tutor
	logger *slog.Logger
}

func (f *feedbackReviewer) ReviewRun(ctx context.Context, lesson *domain.Lesson, code string, run *domain.Run) error {
	feedback, err := f.tutor.Feedback(ctx, &ai.FeedbackInput{
		Lesson: lesson,
		Step:   domain.StepIndependent,
		Code:   code,
		Output: run.Output,
		Failed: run.State == domain.RunFailed,
	})
	if err != nil {
		return err
	}

	f.logger.Info("run feedback",
		slog.String("run_id", run.ID),
		slog.String("lesson_id", run.LessonID),
		slog.Bool("is_correct", feedback.IsCorrect),
		slog.String("feedback", feedback.Feedback),
	)
	return nil
}

// loadCourses imports YAML course files found under path.
func loadCourses(catalogService *catalog.Service, path string, logger *slog.Logger) error {
	loader := catalog.NewLoader(path, logger)
	courses, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}
	for _, course := range courses {
		if _, err := catalogService.ImportCourse(course); err != nil {
			logger.Warn("skipping invalid course file",
				slog.String("title", course.Title),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// initAIProviders sets up AI providers based on configuration
func initAIProviders(registry *ai.Registry, cfg *config.Config, logger *slog.Logger) error {
	resilient := ai.DefaultResilientConfig()
	resilient.Logger = logger

	switch cfg.AIProvider {
	case "gemini":
		provider := ai.NewGeminiProvider(ai.GeminiConfig{
			APIKey:   cfg.AIAPIKey,
			Model:    cfg.AIModel,
			TTSModel: cfg.TTSModel,
			TTSVoice: cfg.TTSVoice,
		})
		registry.Register("gemini", ai.NewResilientProvider(provider, resilient))
		registry.SetDefault("gemini")

	case "ollama":
		provider := ai.NewOllamaProvider(ai.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.AIModel,
		})
		registry.Register("ollama", ai.NewResilientProvider(provider, resilient))
		registry.SetDefault("ollama")

	default:
		return fmt.Errorf("unknown AI provider: %s", cfg.AIProvider)
	}

	return nil
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.Consumer != nil {
		a.Consumer.Stop()
	}
	if a.Steps != nil {
		a.Steps.Stop()
	}
	if a.Queue != nil {
		a.Queue.Close()
	}
	if a.Python != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.Python.Close(ctx); err != nil {
			a.Logger.Warn("failed to destroy python runtime", slog.String("error", err.Error()))
		}
		cancel()
	}
	if a.Archive != nil {
		a.Archive.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
