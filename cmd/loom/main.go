package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/akshad113/loom-ai-instructor/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "loomd.pid"

// daemonAddr is resolved from ~/.loom/config.yaml at startup
var daemonAddr = "http://127.0.0.1:7520"

func main() {
	if cfg, err := config.LoadLocalConfig(); err == nil && cfg.Daemon.Port > 0 {
		daemonAddr = fmt.Sprintf("http://%s:%d", cfg.Daemon.Bind, cfg.Daemon.Port)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "doctor":
		err = cmdDoctor()
	case "config":
		err = cmdConfig()
	case "provider":
		err = cmdProvider(os.Args[2:])
	case "course":
		err = cmdCourse(os.Args[2:])
	case "stats":
		err = cmdStats()
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("loom %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Loom - Interactive AI Coding Tutor

Usage:
  loom <command> [arguments]

Setup Commands:
  init            Initialize Loom (first-time setup)
  doctor          Check system requirements
  config          Show current configuration
  provider        Manage AI providers

Daemon Commands:
  start           Start the Loom daemon
  stop            Stop the Loom daemon
  status          Show daemon status
  logs            View daemon logs

Course Commands:
  course list     List imported courses
  course info     Show course details and progress

Analytics Commands:
  stats           Show learning progress summary

Integration Commands:
  mcp             Start MCP server (for editor integration)

Other:
  help            Show this help message
  version         Show version information

Examples:
  loom start                     # Start daemon
  loom doctor                    # Check Docker, AI providers
  loom provider set-key gemini   # Configure Gemini API key
  loom course list               # List courses
  loom mcp                       # Start MCP server for Cursor`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
