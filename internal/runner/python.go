package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

type runtimeState int

const (
	runtimeNotLoaded runtimeState = iota
	runtimeLoading
	runtimeReady
	runtimeFailed
)

// PythonRuntime runs Python inside a container that is provisioned
// lazily on the first run. Provisioning happens in the background; a
// run that arrives before the runtime is ready polls briefly and then
// reports the runtime unavailable instead of faulting. A failed load is
// terminal until Reset is called.
type PythonRuntime struct {
	backend *DockerBackend
	config  ContainerConfig
	timeout time.Duration
	logger  *slog.Logger

	readyPollInterval time.Duration
	readyPollAttempts int

	mu          sync.Mutex
	state       runtimeState
	containerID string
}

// PythonConfig holds Python runtime configuration.
type PythonConfig struct {
	Image      string
	MemoryMB   int
	CPULimit   float64
	NetworkOff bool
	Timeout    time.Duration
}

// NewPythonRuntime creates a lazily-initialized Python runtime.
func NewPythonRuntime(backend *DockerBackend, cfg PythonConfig, logger *slog.Logger) *PythonRuntime {
	if cfg.Image == "" {
		cfg.Image = "python:3.12-alpine"
	}
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 256
	}
	if cfg.CPULimit == 0 {
		cfg.CPULimit = 0.5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PythonRuntime{
		backend: backend,
		config: ContainerConfig{
			Image:      cfg.Image,
			MemoryMB:   cfg.MemoryMB,
			CPULimit:   cfg.CPULimit,
			NetworkOff: cfg.NetworkOff,
		},
		timeout:           cfg.Timeout,
		logger:            logger,
		readyPollInterval: 500 * time.Millisecond,
		readyPollAttempts: 20,
	}
}

func (r *PythonRuntime) Run(ctx context.Context, code string) (*Result, error) {
	containerID, err := r.awaitReady(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.backend.CopyFiles(ctx, containerID, map[string]string{"main.py": code}); err != nil {
		return nil, fmt.Errorf("copy code: %w", err)
	}

	exec, err := r.backend.Exec(ctx, containerID, []string{"python3", "main.py"}, r.timeout)
	if err != nil {
		return nil, fmt.Errorf("exec python: %w", err)
	}

	if exec.ExitCode != 0 {
		return &Result{
			Output:   formatPythonFault(exec.Stderr),
			Failed:   true,
			Duration: exec.Duration,
		}, nil
	}

	return &Result{Output: strings.TrimRight(exec.Stdout, "\n"), Duration: exec.Duration}, nil
}

// awaitReady kicks off provisioning if needed and polls with a bounded
// number of attempts. It never blocks for the full load.
func (r *PythonRuntime) awaitReady(ctx context.Context) (string, error) {
	r.ensureLoading()

	for attempt := 0; attempt < r.readyPollAttempts; attempt++ {
		r.mu.Lock()
		state, containerID := r.state, r.containerID
		r.mu.Unlock()

		switch state {
		case runtimeReady:
			return containerID, nil
		case runtimeFailed:
			return "", domain.ErrRuntimeUnavailable
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.readyPollInterval):
		}
	}

	return "", domain.ErrRuntimeUnavailable
}

// ensureLoading starts background provisioning exactly once.
func (r *PythonRuntime) ensureLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != runtimeNotLoaded {
		return
	}
	r.state = runtimeLoading

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		containerID, err := r.backend.CreateContainer(ctx, r.config)

		r.mu.Lock()
		defer r.mu.Unlock()

		if err != nil {
			r.logger.Error("python runtime load failed", "error", err)
			r.state = runtimeFailed
			return
		}

		r.containerID = containerID
		r.state = runtimeReady
		r.logger.Info("python runtime ready", "container_id", containerID[:12])
	}()
}

// Reset clears a failed load so the next run retries provisioning.
func (r *PythonRuntime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == runtimeFailed {
		r.state = runtimeNotLoaded
	}
}

// Ready reports whether the runtime can serve runs right now.
func (r *PythonRuntime) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == runtimeReady
}

// Close tears down the runtime container.
func (r *PythonRuntime) Close(ctx context.Context) error {
	r.mu.Lock()
	containerID := r.containerID
	r.containerID = ""
	r.state = runtimeNotLoaded
	r.mu.Unlock()

	if containerID == "" {
		return nil
	}
	return r.backend.DestroyContainer(ctx, containerID)
}

// formatPythonFault trims a traceback down to the final error line,
// keeping the full trace below it.
func formatPythonFault(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return "Error: python exited with a fault"
	}

	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if len(lines) == 1 {
		return "Error: " + last
	}
	return "Error: " + last + "\n" + trimmed
}
