package model

import (
	"encoding/json"
	"time"
)

const (
	JobTypeAIPreGrade = "ai_pre_grade"

	JobStatusQueued     = "Queued"
	JobStatusProcessing = "Processing" // worker picked it up and holds the lock
	JobStatusCompleted  = "Completed"
	JobStatusFailed     = "Failed" // converter or grader failed, message in LastError
)

// GradingJob is the durable record behind the Redis grading queue. The queue
// only carries job IDs; everything a worker needs lives in this row.
type GradingJob struct {
	ID           string          `json:"id"`
	SubmissionID string          `json:"submission_id"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"-"` // Not directly exposed; internal use
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	LastError    *string         `json:"last_error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type AIPreGradePayload struct {
	SubmissionID string `json:"submission_id"`
	FileRef      string `json:"file_ref"`
}
