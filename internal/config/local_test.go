package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoomDir(t *testing.T) {
	dir, err := LoomDir()
	if err != nil {
		t.Fatalf("LoomDir() error = %v", err)
	}

	if filepath.Base(dir) != ".loom" {
		t.Errorf("LoomDir() = %q, want ending with .loom", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("LoomDir() = %q, want absolute path", dir)
	}
}

func TestEnsureLoomDir(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	dir, err := EnsureLoomDir()
	if err != nil {
		t.Fatalf("EnsureLoomDir() error = %v", err)
	}

	expectedDir := filepath.Join(tmpHome, ".loom")
	if dir != expectedDir {
		t.Errorf("EnsureLoomDir() = %q, want %q", dir, expectedDir)
	}

	for _, subdir := range []string{"logs", "courses", "cache"} {
		path := filepath.Join(dir, subdir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("EnsureLoomDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()
	if cfg == nil {
		t.Fatal("DefaultLocalConfig() returned nil")
	}

	if cfg.Daemon.Port != 7520 {
		t.Errorf("Daemon.Port = %d, want 7520", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}

	if cfg.AI.DefaultProvider != "gemini" {
		t.Errorf("AI.DefaultProvider = %q, want gemini", cfg.AI.DefaultProvider)
	}
	if gemini, ok := cfg.AI.Providers["gemini"]; !ok {
		t.Error("AI.Providers should include gemini")
	} else if !gemini.Enabled {
		t.Error("gemini provider should be enabled by default")
	}

	if !cfg.Speech.Enabled {
		t.Error("Speech.Enabled should be true by default")
	}
	if cfg.Speech.SampleRate != 24000 {
		t.Errorf("Speech.SampleRate = %d, want 24000", cfg.Speech.SampleRate)
	}

	if !cfg.Runner.Docker.NetworkOff {
		t.Error("Runner.Docker.NetworkOff should be true by default")
	}
}

func TestLoadSecrets(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultLocalConfig()

	secretsContent := `providers:
  gemini:
    api_key: test-gemini-key
`
	secretsPath := filepath.Join(tmpDir, "secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte(secretsContent), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	if err := loadSecrets(tmpDir, cfg); err != nil {
		t.Fatalf("loadSecrets() error = %v", err)
	}

	if cfg.AI.Providers["gemini"].APIKey != "test-gemini-key" {
		t.Errorf("gemini APIKey = %q, want test-gemini-key", cfg.AI.Providers["gemini"].APIKey)
	}
	if cfg.AI.Providers["ollama"].APIKey != "" {
		t.Errorf("ollama APIKey = %q, want empty", cfg.AI.Providers["ollama"].APIKey)
	}
}

func TestLoadSecrets_NoSecretsFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultLocalConfig()

	if err := loadSecrets(tmpDir, cfg); err != nil {
		t.Errorf("loadSecrets() should not error when secrets file is missing: %v", err)
	}
}

func TestLoadLocalConfig_DefaultsWhenNoFile(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 7520 {
		t.Errorf("Daemon.Port = %d, want 7520 (default)", cfg.Daemon.Port)
	}
}

func TestLoadLocalConfig_WithConfigFile(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	loomDir := filepath.Join(tmpHome, ".loom")
	if err := os.MkdirAll(loomDir, 0755); err != nil {
		t.Fatalf("Failed to create .loom dir: %v", err)
	}

	configContent := `daemon:
  port: 9999
  bind: "0.0.0.0"
  log_level: debug
ai:
  default_provider: ollama
`
	configPath := filepath.Join(loomDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.AI.DefaultProvider != "ollama" {
		t.Errorf("AI.DefaultProvider = %q, want ollama", cfg.AI.DefaultProvider)
	}
}

func TestSaveLocalConfig(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 8888
	cfg.AI.DefaultProvider = "ollama"

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	configPath := filepath.Join(tmpHome, ".loom", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}

	var loaded LocalConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}

	if loaded.Daemon.Port != 8888 {
		t.Errorf("Saved Daemon.Port = %d, want 8888", loaded.Daemon.Port)
	}
	if loaded.AI.DefaultProvider != "ollama" {
		t.Errorf("Saved AI.DefaultProvider = %q, want ollama", loaded.AI.DefaultProvider)
	}
}

func TestSaveSecrets(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	secrets := map[string]string{"gemini": "sk-gemini-secret"}

	if err := SaveSecrets(secrets); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	secretsPath := filepath.Join(tmpHome, ".loom", "secrets.yaml")
	info, err := os.Stat(secretsPath)
	if err != nil {
		t.Fatalf("Failed to stat secrets file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Secrets file permissions = %o, want 0600", info.Mode().Perm())
	}

	data, err := os.ReadFile(secretsPath)
	if err != nil {
		t.Fatalf("Failed to read secrets file: %v", err)
	}

	var loaded SecretsConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to parse saved secrets: %v", err)
	}
	if loaded.Providers["gemini"].APIKey != "sk-gemini-secret" {
		t.Errorf("Saved gemini APIKey = %q, want sk-gemini-secret", loaded.Providers["gemini"].APIKey)
	}
}

func TestRoundTrip_ConfigAndSecrets(t *testing.T) {
	originalHome := os.Getenv("HOME")
	defer os.Setenv("HOME", originalHome)

	tmpHome := t.TempDir()
	os.Setenv("HOME", tmpHome)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 7777
	cfg.AI.DefaultProvider = "ollama"

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}
	if err := SaveSecrets(map[string]string{"gemini": "roundtrip-key"}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}

	if loaded.Daemon.Port != 7777 {
		t.Errorf("Round-trip Daemon.Port = %d, want 7777", loaded.Daemon.Port)
	}
	if loaded.AI.DefaultProvider != "ollama" {
		t.Errorf("Round-trip AI.DefaultProvider = %q, want ollama", loaded.AI.DefaultProvider)
	}
	if loaded.AI.Providers["gemini"].APIKey != "roundtrip-key" {
		t.Errorf("Round-trip gemini APIKey = %q, want roundtrip-key", loaded.AI.Providers["gemini"].APIKey)
	}

	// APIKey must never be serialized back out
	data, err := os.ReadFile(filepath.Join(tmpHome, ".loom", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var reparsed LocalConfig
	if err := yaml.Unmarshal(data, &reparsed); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if reparsed.AI.Providers["gemini"].APIKey != "" {
		t.Error("APIKey should not be serialized to config.yaml")
	}
}
