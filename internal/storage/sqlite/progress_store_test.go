package sqlite

import (
	"testing"
	"time"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

func TestProgressStoreUpsertIdempotent(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)

	p := &domain.StepProgress{
		LessonID: "l1",
		StepID:   domain.StepExplanation,
		Status:   domain.StatusCompleted,
	}
	for i := 0; i < 3; i++ {
		if err := store.Upsert(p); err != nil {
			t.Fatalf("Upsert() #%d error = %v", i, err)
		}
	}

	rows, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("len(List()) = %d, want 1 after repeated upserts", len(rows))
	}
}

func TestProgressStoreLastWriteWins(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)

	first := &domain.StepProgress{
		LessonID:  "l1",
		StepID:    domain.StepGuided,
		Status:    domain.StatusCompleted,
		UpdatedAt: time.Now().Add(-time.Minute),
	}
	if err := store.Upsert(first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Progress can move backwards: completed -> not_started overwrites.
	second := &domain.StepProgress{
		LessonID: "l1",
		StepID:   domain.StepGuided,
		Status:   domain.StatusNotStarted,
	}
	if err := store.Upsert(second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rows, err := store.ListForLesson("l1")
	if err != nil {
		t.Fatalf("ListForLesson() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Status != domain.StatusNotStarted {
		t.Errorf("Status = %q, want not_started", rows[0].Status)
	}
	if !rows[0].UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced on overwrite")
	}
}

func TestProgressStoreCompletedCount(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)

	upsert := func(lesson string, step domain.StepID, status domain.StepStatus) {
		t.Helper()
		err := store.Upsert(&domain.StepProgress{LessonID: lesson, StepID: step, Status: status})
		if err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	upsert("l1", domain.StepExplanation, domain.StatusCompleted)
	upsert("l1", domain.StepExample, domain.StatusCompleted)
	upsert("l2", domain.StepExplanation, domain.StatusCompleted)
	upsert("l2", domain.StepExample, domain.StatusNotStarted)
	upsert("other", domain.StepExplanation, domain.StatusCompleted)
	// A row with an unknown step id must not count toward completion.
	upsert("l1", domain.StepID("bonus"), domain.StatusCompleted)

	tests := []struct {
		name    string
		lessons []string
		want    int
	}{
		{"single lesson", []string{"l1"}, 2},
		{"two lessons", []string{"l1", "l2"}, 3},
		{"no lessons", nil, 0},
		{"unknown lesson", []string{"nope"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.CompletedCount(tt.lessons)
			if err != nil {
				t.Fatalf("CompletedCount() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CompletedCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProgressStoreListEmpty(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)

	rows, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(List()) = %d, want 0", len(rows))
	}
}
