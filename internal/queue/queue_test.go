package queue_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
	"github.com/akshad113/loom-ai-instructor/internal/queue"
)

func TestRunFinishedEvent_WireShape(t *testing.T) {
	event := queue.RunFinishedEvent{
		ID:         uuid.New(),
		RunID:      "run-1",
		LessonID:   "lesson-1",
		Language:   domain.LanguagePython,
		State:      domain.RunFailed,
		Output:     "Error: name 'x' is not defined",
		FinishedAt: time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Consumers on other stacks key off these names
	var wire map[string]any
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "run_id", "lesson_id", "language", "state", "output", "finished_at"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("wire payload missing %q", key)
		}
	}
	if wire["state"] != "failed" {
		t.Errorf("state = %v; want failed", wire["state"])
	}
}

func TestQueueNames(t *testing.T) {
	if queue.RunFinishedQueueName != "loom.run_finished" {
		t.Errorf("RunFinishedQueueName = %q", queue.RunFinishedQueueName)
	}
	if queue.StepCompletedQueueName != "loom.step_completed" {
		t.Errorf("StepCompletedQueueName = %q", queue.StepCompletedQueueName)
	}
}
