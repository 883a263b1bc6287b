package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

func TestAwaitReadyFailedLoad(t *testing.T) {
	r := &PythonRuntime{
		readyPollInterval: time.Millisecond,
		readyPollAttempts: 3,
		state:             runtimeFailed,
	}

	_, err := r.awaitReady(context.Background())
	if !errors.Is(err, domain.ErrRuntimeUnavailable) {
		t.Errorf("awaitReady() error = %v, want ErrRuntimeUnavailable", err)
	}
}

func TestAwaitReadyTimesOutWhileLoading(t *testing.T) {
	r := &PythonRuntime{
		readyPollInterval: time.Millisecond,
		readyPollAttempts: 3,
		state:             runtimeLoading,
	}

	_, err := r.awaitReady(context.Background())
	if !errors.Is(err, domain.ErrRuntimeUnavailable) {
		t.Errorf("awaitReady() error = %v, want ErrRuntimeUnavailable", err)
	}
}

func TestAwaitReadyReturnsContainer(t *testing.T) {
	r := &PythonRuntime{
		readyPollInterval: time.Millisecond,
		readyPollAttempts: 3,
		state:             runtimeReady,
		containerID:       "abc123",
	}

	id, err := r.awaitReady(context.Background())
	if err != nil {
		t.Fatalf("awaitReady() error = %v", err)
	}
	if id != "abc123" {
		t.Errorf("containerID = %q", id)
	}
}

func TestAwaitReadyRespectsContext(t *testing.T) {
	r := &PythonRuntime{
		readyPollInterval: 50 * time.Millisecond,
		readyPollAttempts: 100,
		state:             runtimeLoading,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.awaitReady(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("awaitReady() error = %v, want DeadlineExceeded", err)
	}
}

func TestResetClearsFailedState(t *testing.T) {
	r := &PythonRuntime{state: runtimeFailed}

	r.Reset()
	if r.state != runtimeNotLoaded {
		t.Errorf("state = %d after Reset, want not loaded", r.state)
	}

	// Reset only applies to a failed load.
	r.state = runtimeReady
	r.Reset()
	if r.state != runtimeReady {
		t.Error("Reset() must not tear down a ready runtime")
	}
}

func TestFormatPythonFault(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{
			"single line",
			"NameError: name 'x' is not defined",
			"Error: NameError: name 'x' is not defined",
		},
		{
			"empty stderr",
			"",
			"Error: python exited with a fault",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPythonFault(tt.stderr); got != tt.want {
				t.Errorf("formatPythonFault() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatPythonFaultTraceback(t *testing.T) {
	stderr := "Traceback (most recent call last):\n  File \"main.py\", line 1\nZeroDivisionError: division by zero"

	got := formatPythonFault(stderr)
	want := "Error: ZeroDivisionError: division by zero"
	if !strings.HasPrefix(got, want) {
		t.Errorf("formatPythonFault() = %q, want prefix %q", got, want)
	}
	if !strings.Contains(got, "Traceback") {
		t.Errorf("formatPythonFault() = %q, full trace should be kept", got)
	}
}

func TestDemuxOutput(t *testing.T) {
	// 8-byte header: stream type 1 (stdout), size 5, then "hello"
	frame := append([]byte{1, 0, 0, 0, 0, 0, 0, 5}, []byte("hello")...)
	// stderr frame with "oops"
	frame = append(frame, append([]byte{2, 0, 0, 0, 0, 0, 0, 4}, []byte("oops")...)...)

	stdout, stderr := demuxOutput(frame)
	if stdout != "hello" {
		t.Errorf("stdout = %q, want hello", stdout)
	}
	if stderr != "oops" {
		t.Errorf("stderr = %q, want oops", stderr)
	}
}

func TestDemuxOutputUnframed(t *testing.T) {
	stdout, stderr := demuxOutput([]byte("raw"))
	if stdout != "raw" || stderr != "" {
		t.Errorf("demuxOutput(raw) = %q, %q", stdout, stderr)
	}
}
