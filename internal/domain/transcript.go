package domain

import "time"

// TranscriptRole identifies the author of a transcript entry.
type TranscriptRole string

const (
	RoleStudent    TranscriptRole = "student"
	RoleInstructor TranscriptRole = "instructor"
)

// TranscriptEntry is one turn of an instructor conversation.
type TranscriptEntry struct {
	Role      TranscriptRole `json:"role"`
	Text      string         `json:"text"`
	Timestamp time.Time      `json:"timestamp"`
}
