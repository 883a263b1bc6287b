package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/catalog"
	"github.com/akshad113/loom-ai-instructor/internal/config"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
	mcpserver "github.com/akshad113/loom-ai-instructor/internal/mcp"
	"github.com/akshad113/loom-ai-instructor/internal/runner"
	"github.com/akshad113/loom-ai-instructor/internal/storage/sqlite"
	"github.com/akshad113/loom-ai-instructor/internal/workspace"
)

// cmdMCP starts the MCP server for editor integration
func cmdMCP() error {
	// Load configuration
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loomDir, err := config.EnsureLoomDir()
	if err != nil {
		return fmt.Errorf("get loom dir: %w", err)
	}

	// Stdio carries the protocol; logs must stay off stdout
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Open the shared catalog database
	db, err := sqlite.Open(filepath.Join(loomDir, "loom.db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	cat := catalog.NewService(sqlite.NewCourseStore(db), sqlite.NewProgressStore(db), logger)
	ws := workspace.New()

	// Local executors only; Docker-backed Python stays with the daemon
	runSvc := runner.NewService(cat, logger)
	timeout := time.Duration(cfg.Runner.Docker.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runSvc.RegisterExecutor(domain.LanguageJavaScript, runner.NewNodeExecutor(cfg.Runner.NodePath, timeout))
	runSvc.RegisterExecutor(domain.LanguageHTML, runner.NewPreviewExecutor(domain.LanguageHTML))
	runSvc.RegisterExecutor(domain.LanguageCSS, runner.NewPreviewExecutor(domain.LanguageCSS))

	// Set up the default AI provider
	var provider ai.Provider
	providerCfg := cfg.AI.Providers[cfg.AI.DefaultProvider]
	switch cfg.AI.DefaultProvider {
	case "ollama":
		url, model := "", ""
		if providerCfg != nil {
			url, model = providerCfg.URL, providerCfg.Model
		}
		provider = ai.NewOllamaProvider(ai.OllamaConfig{BaseURL: url, Model: model})
	default:
		key, model := "", ""
		if providerCfg != nil {
			key, model = providerCfg.APIKey, providerCfg.Model
		}
		provider = ai.NewGeminiProvider(ai.GeminiConfig{APIKey: key, Model: model})
	}
	resilientCfg := ai.DefaultResilientConfig()
	resilientCfg.Logger = logger
	tutor := ai.NewTutor(ai.NewResilientProvider(provider, resilientCfg), logger)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Catalog:   cat,
		Runner:    runSvc,
		Workspace: ws,
		Tutor:     tutor,
	})

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Serve on stdio
	return mcpSrv.ServeStdio(ctx)
}
