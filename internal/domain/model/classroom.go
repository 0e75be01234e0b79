package model

import "time"

const (
	// Join codes are shared by hand, so they stay short. Bounds apply to
	// caller-supplied codes; generated codes use the configured length.
	ClassroomCodeMinLen = 6
	ClassroomCodeMaxLen = 10
)

type Classroom struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Details   *string   `json:"details,omitempty"`
	Code      string    `json:"code"` // unique system-wide, stored uppercase
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership links a student to a classroom they joined. A (student, classroom)
// pair occurs at most once; the unique index enforces it.
type Membership struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	ClassroomID string    `json:"classroom_id"`
	JoinedAt    time.Time `json:"joined_at"`
}
