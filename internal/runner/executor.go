package runner

import (
	"context"
	"time"
)

// Executor runs source text for one language.
type Executor interface {
	// Run executes code and returns its captured output. User code
	// faults come back inside the Result, not as an error.
	Run(ctx context.Context, code string) (*Result, error)
}

// Result contains the outcome of a code run.
type Result struct {
	// Output is the joined console/interpreter output, or a formatted
	// error string when the code faulted.
	Output string

	// Preview carries the sanitized markup for preview languages.
	Preview string

	// Failed reports whether the user's code faulted.
	Failed bool

	Duration time.Duration
}
