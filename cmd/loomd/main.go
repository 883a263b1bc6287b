package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/api"
	"github.com/akshad113/loom-ai-instructor/internal/config"
	"github.com/akshad113/loom-ai-instructor/internal/storage/sqlite"
)

const (
	pidFileName = "loomd.pid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Ensure ~/.loom directory exists
	loomDir, err := config.EnsureLoomDir()
	if err != nil {
		return fmt.Errorf("ensure loom dir: %w", err)
	}

	// Load configuration: env vars win, ~/.loom/config.yaml fills the gaps
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	local, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load local config: %w", err)
	}
	applyLocalConfig(cfg, local)

	// Setup logging
	logLevel := parseLogLevel(local.Daemon.LogLevel)
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logFile, err := setupLogging(loomDir, logLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// Write PID file
	pidPath := filepath.Join(loomDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	// Open database
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate database: %w", err)
	}

	// Wire services
	ctx := context.Background()
	app, err := api.NewApp(ctx, api.AppConfig{
		Config: cfg,
		DB:     db,
		Logger: slog.Default(),
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("create app: %w", err)
	}

	handler, err := api.NewRouter(app)
	if err != nil {
		app.Close()
		return fmt.Errorf("create router: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", local.Daemon.Bind, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		if err := app.Close(); err != nil {
			slog.Error("close error", "error", err)
		}
		close(done)
	}()

	slog.Info("daemon listening", "addr", server.Addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// applyLocalConfig copies ~/.loom/config.yaml values into the runtime config
// for every knob whose environment variable is unset.
func applyLocalConfig(cfg *config.Config, local *config.LocalConfig) {
	if os.Getenv("PORT") == "" && local.Daemon.Port > 0 {
		cfg.Port = local.Daemon.Port
	}
	if os.Getenv("AI_PROVIDER") == "" && local.AI.DefaultProvider != "" {
		cfg.AIProvider = local.AI.DefaultProvider
	}
	if provider, ok := local.AI.Providers[cfg.AIProvider]; ok {
		if os.Getenv("AI_API_KEY") == "" && provider.APIKey != "" {
			cfg.AIAPIKey = provider.APIKey
		}
		if os.Getenv("AI_MODEL") == "" && provider.Model != "" {
			cfg.AIModel = provider.Model
		}
		if os.Getenv("OLLAMA_URL") == "" && provider.URL != "" {
			cfg.OllamaURL = provider.URL
		}
	}
	if os.Getenv("TTS_MODEL") == "" && local.Speech.Model != "" {
		cfg.TTSModel = local.Speech.Model
	}
	if os.Getenv("TTS_VOICE") == "" && local.Speech.Voice != "" {
		cfg.TTSVoice = local.Speech.Voice
	}
	if os.Getenv("TTS_SAMPLE_RATE") == "" && local.Speech.SampleRate > 0 {
		cfg.TTSSampleRate = local.Speech.SampleRate
	}
	if os.Getenv("RUNNER_IMAGE") == "" && local.Runner.Docker.Image != "" {
		cfg.RunnerImage = local.Runner.Docker.Image
	}
	if os.Getenv("RUNNER_MEMORY_MB") == "" && local.Runner.Docker.MemoryMB > 0 {
		cfg.RunnerMemoryMB = local.Runner.Docker.MemoryMB
	}
	if os.Getenv("RUNNER_TIMEOUT") == "" && local.Runner.Docker.TimeoutSeconds > 0 {
		cfg.RunnerTimeout = local.Runner.Docker.TimeoutSeconds
	}
	if os.Getenv("NODE_PATH") == "" && local.Runner.NodePath != "" {
		cfg.NodePath = local.Runner.NodePath
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(loomDir string, level slog.Level) (*os.File, error) {
	logPath := filepath.Join(loomDir, "logs", "loomd.log")

	// Create log file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	// Create handler that writes to both stdout and file
	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})

	// Also log to stderr for foreground mode
	multiHandler := &multiHandler{
		handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}),
		},
	}

	slog.SetDefault(slog.New(multiHandler))

	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
