package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// harness captures console output in call order, turns an uncaught
// fault into an error line, and restores the console hooks whether the
// code succeeds or faults.
const nodeHarness = `'use strict';
const lines = [];
const hooks = ['log', 'info', 'warn', 'error'];
const original = {};
for (const name of hooks) {
	original[name] = console[name];
	console[name] = (...args) => lines.push(args.map(String).join(' '));
}
try {
	require('./main.js');
} catch (err) {
	lines.push('Error: ' + (err && err.message ? err.message : String(err)));
	process.exitCode = 1;
} finally {
	for (const name of hooks) {
		console[name] = original[name];
	}
	process.stdout.write(lines.join('\n'));
}
`

// NodeExecutor runs JavaScript through a local Node.js process.
type NodeExecutor struct {
	nodePath string
	timeout  time.Duration
}

// NewNodeExecutor creates a Node.js executor.
func NewNodeExecutor(nodePath string, timeout time.Duration) *NodeExecutor {
	if nodePath == "" {
		nodePath = "node"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NodeExecutor{nodePath: nodePath, timeout: timeout}
}

func (e *NodeExecutor) Run(ctx context.Context, code string) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "loom-run-*")
	if err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	files := map[string]string{
		"main.js":    code,
		"harness.js": nodeHarness,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, e.nodePath, "harness.js")
	cmd.Dir = tmpDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return &Result{
			Output:   "Error: execution timed out",
			Failed:   true,
			Duration: duration,
		}, nil
	}

	output := stdout.String()
	if err != nil {
		// Nonzero exit: either the harness reported a fault on stdout
		// or node itself rejected the input (syntax error on stderr).
		if output == "" {
			output = "Error: " + strings.TrimSpace(stderr.String())
		}
		return &Result{Output: output, Failed: true, Duration: duration}, nil
	}

	return &Result{Output: output, Duration: duration}, nil
}
