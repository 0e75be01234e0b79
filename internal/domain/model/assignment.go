package model

import "time"

type Assignment struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Details     *string    `json:"details,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"` // must be in the future at creation; never re-checked
	OwnerID     string     `json:"owner_id"`
	ClassroomID string     `json:"classroom_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
