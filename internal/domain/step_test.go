package domain

import "testing"

func TestStepID_IsValid(t *testing.T) {
	tests := []struct {
		step StepID
		want bool
	}{
		{StepExplanation, true},
		{StepExample, true},
		{StepGuided, true},
		{StepIndependent, true},
		{StepFeedback, true},
		{StepID("review"), false},
		{StepID(""), false},
	}
	for _, tt := range tests {
		if got := tt.step.IsValid(); got != tt.want {
			t.Errorf("IsValid(%q) = %v; want %v", tt.step, got, tt.want)
		}
	}
}

func TestStepID_Index(t *testing.T) {
	steps := Steps()
	for i, step := range steps {
		if got := step.Index(); got != i {
			t.Errorf("Index(%q) = %d; want %d", step, got, i)
		}
	}
	if got := StepID("bogus").Index(); got != -1 {
		t.Errorf("Index(bogus) = %d; want -1", got)
	}
}

func TestParseStepID(t *testing.T) {
	if _, err := ParseStepID("guided"); err != nil {
		t.Errorf("ParseStepID(guided) error = %v", err)
	}
	if _, err := ParseStepID("warmup"); err == nil {
		t.Error("ParseStepID(warmup) expected error")
	}
}

func TestStepStatus_IsValid(t *testing.T) {
	if !StatusCompleted.IsValid() || !StatusNotStarted.IsValid() {
		t.Error("persistable statuses should be valid")
	}
	// in_progress is a client-side display state, never persisted
	if StepStatus("in_progress").IsValid() {
		t.Error("in_progress must not be persistable")
	}
}
