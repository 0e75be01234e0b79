package model

import "time"

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
	StatusReturned  SubmissionStatus = "returned"
	StatusLate      SubmissionStatus = "late" // assigned at submission time only, never retroactively
)

// Submission is a student's latest deliverable for one assignment. At most one
// row exists per (student, assignment); re-submitting replaces the file and
// wipes any prior grade, since the graded artifact no longer matches.
type Submission struct {
	ID           string           `json:"id"`
	StudentID    string           `json:"student_id"`
	AssignmentID string           `json:"assignment_id"`
	FileRef      string           `json:"file_ref"` // opaque storage reference
	Status       SubmissionStatus `json:"status"`
	Mark         *float64         `json:"mark,omitempty"` // 0-100, two decimals; meaningful once graded
	Feedback     *string          `json:"feedback,omitempty"`
	GradedAt     *time.Time       `json:"graded_at,omitempty"`
	GraderID     *string          `json:"grader_id,omitempty"`
	AIScore      *float64         `json:"ai_score,omitempty"` // advisory pre-grade, never affects Status
	AIFeedback   *string          `json:"ai_feedback,omitempty"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	StudentName *string `json:"student_name,omitempty"` // for lecturer listings
}
