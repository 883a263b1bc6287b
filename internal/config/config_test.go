package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "TEST_KEY_SET", "default", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "TEST_INT_UNSET", 100, "", 100},
		{"parses valid int", "TEST_INT_VALID", 100, "42", 42},
		{"returns default on invalid int", "TEST_INT_INVALID", 100, "not-a-number", 100},
		{"parses negative int", "TEST_INT_NEG", 100, "-5", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns default when not set", "TEST_BOOL_UNSET", true, "", true},
		{"parses true", "TEST_BOOL_TRUE", false, "true", true},
		{"parses false", "TEST_BOOL_FALSE", true, "false", false},
		{"parses 1 as true", "TEST_BOOL_ONE", false, "1", true},
		{"returns default on invalid bool", "TEST_BOOL_INVALID", true, "yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.AIProvider != "gemini" {
		t.Errorf("AIProvider = %q, want gemini", cfg.AIProvider)
	}
	if cfg.DatabasePath != "./loom.db" {
		t.Errorf("DatabasePath = %q, want ./loom.db", cfg.DatabasePath)
	}
	if cfg.RunnerTimeout != 30 {
		t.Errorf("RunnerTimeout = %d, want 30", cfg.RunnerTimeout)
	}
	if cfg.TTSSampleRate != 24000 {
		t.Errorf("TTSSampleRate = %d, want 24000", cfg.TTSSampleRate)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envVars := map[string]string{
		"PORT":           "9000",
		"AI_PROVIDER":    "ollama",
		"AI_MODEL":       "llama3.2",
		"RUNNER_TIMEOUT": "60",
		"COURSES_PATH":   "/custom/courses",
	}

	for k, v := range envVars {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.AIProvider != "ollama" {
		t.Errorf("AIProvider = %q, want ollama", cfg.AIProvider)
	}
	if cfg.AIModel != "llama3.2" {
		t.Errorf("AIModel = %q, want llama3.2", cfg.AIModel)
	}
	if cfg.RunnerTimeout != 60 {
		t.Errorf("RunnerTimeout = %d, want 60", cfg.RunnerTimeout)
	}
	if cfg.CoursesPath != "/custom/courses" {
		t.Errorf("CoursesPath = %q, want /custom/courses", cfg.CoursesPath)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	os.Setenv("AI_PROVIDER", "skynet")
	defer os.Unsetenv("AI_PROVIDER")

	if _, err := Load(); err == nil {
		t.Error("Load() should error on unknown AI_PROVIDER")
	}
}

func TestLoad_InvalidRunnerTimeout(t *testing.T) {
	os.Setenv("RUNNER_TIMEOUT", "-1")
	defer os.Unsetenv("RUNNER_TIMEOUT")

	if _, err := Load(); err == nil {
		t.Error("Load() should error on non-positive RUNNER_TIMEOUT")
	}
}
