package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/akshad113/loom-ai-instructor/internal/config"
)

// cmdInit initializes Loom for first-time use
func cmdInit() error {
	fmt.Println("Loom - First-Time Setup")
	fmt.Println("=======================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// 1. Create directory structure
	fmt.Print("Creating ~/.loom directory structure... ")
	loomDir, err := config.EnsureLoomDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	// 2. Create default config if it doesn't exist
	configPath := filepath.Join(loomDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	// 3. Configure AI provider
	fmt.Println()
	fmt.Println("AI Provider Setup")
	fmt.Println("-----------------")
	fmt.Println("Loom supports: Gemini (Google) and Ollama (local)")
	fmt.Println()

	// Load current config to check existing keys
	cfg, _ := config.LoadLocalConfig()

	if cfg != nil && cfg.AI.Providers["gemini"] != nil && cfg.AI.Providers["gemini"].APIKey != "" {
		fmt.Println("Gemini API key: already configured ✓")
	} else {
		fmt.Print("Enter Gemini API key (or press Enter to skip): ")
		key, _ := reader.ReadString('\n')
		key = strings.TrimSpace(key)
		if key != "" {
			secrets := map[string]string{"gemini": key}
			if err := config.SaveSecrets(secrets); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved")
			}
		}
	}

	// 4. Check Docker (needed for Python lessons)
	fmt.Println()
	fmt.Print("Checking Docker... ")
	if err := checkDocker(); err != nil {
		fmt.Println("⚠ Not available (Python lessons will be disabled)")
	} else {
		fmt.Println("✓")
	}

	// 5. Check Node (needed for JavaScript lessons)
	fmt.Print("Checking Node.js... ")
	nodePath := "node"
	if cfg != nil && cfg.Runner.NodePath != "" {
		nodePath = cfg.Runner.NodePath
	}
	if _, err := exec.LookPath(nodePath); err != nil {
		fmt.Println("⚠ Not found (JavaScript lessons will fail to run)")
	} else {
		fmt.Println("✓")
	}

	// 6. Summary
	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println("===============")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. loom start          # Start the daemon")
	fmt.Println("  2. loom doctor         # Verify configuration")
	fmt.Println("  3. loom course list    # See imported courses")
	fmt.Println()
	fmt.Println("For editor integration:")
	fmt.Println("  - Cursor: Configure MCP with 'loom mcp' command")

	return nil
}

// cmdDoctor checks system requirements
func cmdDoctor() error {
	fmt.Println("Checking system requirements...")

	allGood := true

	// Check Docker
	fmt.Print("Docker:    ")
	if err := checkDocker(); err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ available")
	}

	// Check loom directory
	fmt.Print("Directory: ")
	loomDir, err := config.LoomDir()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else if _, err := os.Stat(loomDir); os.IsNotExist(err) {
		fmt.Println("✗ not created (run 'loom init' to create)")
		allGood = false
	} else {
		fmt.Printf("✓ %s\n", loomDir)
	}

	// Check config
	fmt.Print("Config:    ")
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		allGood = false
	} else {
		fmt.Println("✓ loaded")

		// Check AI providers
		fmt.Println("\nAI Providers:")
		for name, provider := range cfg.AI.Providers {
			if !provider.Enabled {
				continue
			}

			fmt.Printf("  %s: ", name)
			if name == "ollama" {
				// Check Ollama connectivity
				if err := checkOllama(provider.URL); err != nil {
					fmt.Printf("✗ %v\n", err)
				} else {
					fmt.Printf("✓ available (model: %s)\n", provider.Model)
				}
			} else if provider.APIKey != "" {
				fmt.Printf("✓ configured (model: %s)\n", provider.Model)
			} else {
				fmt.Printf("✗ no API key (run 'loom provider set-key %s')\n", name)
			}
		}
	}

	// Check daemon status
	fmt.Print("\nDaemon:    ")
	if isRunning() {
		fmt.Println("✓ running")
	} else {
		fmt.Println("✗ not running (run 'loom start')")
	}

	fmt.Println()
	if allGood {
		fmt.Println("All checks passed! ✓")
	} else {
		fmt.Println("Some checks failed. Please fix the issues above.")
	}

	return nil
}

// cmdConfig shows current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Loom Configuration")

	fmt.Println("Daemon:")
	fmt.Printf("  bind: %s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)

	fmt.Println("\nAI:")
	fmt.Printf("  default_provider: %s\n", cfg.AI.DefaultProvider)
	for name, provider := range cfg.AI.Providers {
		if provider.Enabled {
			hasKey := provider.APIKey != "" || name == "ollama"
			keyStatus := "✗"
			if hasKey {
				keyStatus = "✓"
			}
			fmt.Printf("  %s: enabled=%t model=%s key=%s\n", name, provider.Enabled, provider.Model, keyStatus)
		}
	}

	fmt.Println("\nSpeech:")
	fmt.Printf("  enabled: %t\n", cfg.Speech.Enabled)
	fmt.Printf("  model: %s\n", cfg.Speech.Model)
	fmt.Printf("  voice: %s\n", cfg.Speech.Voice)

	fmt.Println("\nRunner:")
	fmt.Printf("  node_path: %s\n", cfg.Runner.NodePath)
	fmt.Printf("  image: %s\n", cfg.Runner.Docker.Image)
	fmt.Printf("  memory: %dMB\n", cfg.Runner.Docker.MemoryMB)
	fmt.Printf("  timeout: %ds\n", cfg.Runner.Docker.TimeoutSeconds)

	loomDir, _ := config.LoomDir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", loomDir)

	return nil
}

// cmdProvider manages AI provider API keys
func cmdProvider(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Provider management commands:

  loom provider list              List configured providers
  loom provider set-key <name>    Set API key for a provider`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdProviderList()
	case "set-key":
		if len(args) < 2 {
			return fmt.Errorf("provider name required")
		}
		return cmdProviderSetKey(args[1])
	default:
		return fmt.Errorf("unknown provider command: %s", args[0])
	}
}

func cmdProviderList() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configured AI Providers:")
	for name, provider := range cfg.AI.Providers {
		status := "disabled"
		if provider.Enabled {
			if provider.APIKey != "" || name == "ollama" {
				status = "ready"
			} else {
				status = "needs API key"
			}
		}

		isDefault := ""
		if name == cfg.AI.DefaultProvider {
			isDefault = " (default)"
		}

		fmt.Printf("  %s%s\n", name, isDefault)
		fmt.Printf("    status: %s\n", status)
		fmt.Printf("    model:  %s\n", provider.Model)
		if name == "ollama" && provider.URL != "" {
			fmt.Printf("    url:    %s\n", provider.URL)
		}
		fmt.Println()
	}

	return nil
}

func cmdProviderSetKey(provider string) error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Check if provider exists
	if _, ok := cfg.AI.Providers[provider]; !ok {
		return fmt.Errorf("unknown provider: %s (valid: gemini, ollama)", provider)
	}

	if provider == "ollama" {
		fmt.Println("Ollama doesn't require an API key.")
		return nil
	}

	// Prompt for API key
	fmt.Printf("Enter %s API key: ", provider)
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	key = strings.TrimSpace(key)

	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	secrets := make(map[string]string)
	secrets[provider] = key

	if err := config.SaveSecrets(secrets); err != nil {
		return fmt.Errorf("save secrets: %w", err)
	}

	fmt.Printf("✓ API key saved for %s\n", provider)
	fmt.Println("Restart the daemon for changes to take effect.")
	return nil
}

func checkDocker() error {
	// Check if docker is in PATH
	if _, err := exec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker not found in PATH")
	}

	// Check if docker daemon is running
	cmd := exec.Command("docker", "info")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker daemon not running")
	}

	return nil
}

func checkOllama(url string) error {
	if url == "" {
		url = "http://localhost:11434"
	}

	resp, err := http.Get(url + "/api/tags")
	if err != nil {
		return fmt.Errorf("not reachable at %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
