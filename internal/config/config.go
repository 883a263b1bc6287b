package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port  int
	Debug bool

	// Database
	DatabasePath string
	ArchiveURL   string // optional PostgreSQL transcript archive

	// RabbitMQ
	RabbitMQURL string

	// AI
	AIProvider string // gemini, ollama
	AIAPIKey   string
	AIModel    string
	OllamaURL  string

	// TTS
	TTSModel      string
	TTSVoice      string
	TTSSampleRate int

	// Runner
	RunnerTimeout  int // seconds
	RunnerMemoryMB int
	RunnerCPULimit float64
	RunnerImage    string
	NodePath       string

	// Courses
	CoursesPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		Debug:          getEnvBool("DEBUG", false),
		DatabasePath:   getEnv("DATABASE_PATH", "./loom.db"),
		ArchiveURL:     getEnv("ARCHIVE_URL", ""),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		AIProvider:     getEnv("AI_PROVIDER", "gemini"),
		AIAPIKey:       getEnv("AI_API_KEY", ""),
		AIModel:        getEnv("AI_MODEL", "gemini-2.0-flash"),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		TTSModel:       getEnv("TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		TTSVoice:       getEnv("TTS_VOICE", "Kore"),
		TTSSampleRate:  getEnvInt("TTS_SAMPLE_RATE", 24000),
		RunnerTimeout:  getEnvInt("RUNNER_TIMEOUT", 30),
		RunnerMemoryMB: getEnvInt("RUNNER_MEMORY_MB", 256),
		RunnerCPULimit: getEnvFloat("RUNNER_CPU_LIMIT", 0.5),
		RunnerImage:    getEnv("RUNNER_IMAGE", "python:3.12-alpine"),
		NodePath:       getEnv("NODE_PATH", "node"),
		CoursesPath:    getEnv("COURSES_PATH", "./courses"),
	}

	// Validate provider choice early; a typo here should fail startup,
	// not every later request.
	switch cfg.AIProvider {
	case "gemini", "ollama":
	default:
		return nil, fmt.Errorf("%w: unknown AI_PROVIDER %q", domain.ErrConfiguration, cfg.AIProvider)
	}

	if cfg.RunnerTimeout <= 0 {
		return nil, fmt.Errorf("%w: RUNNER_TIMEOUT must be positive", domain.ErrConfiguration)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
