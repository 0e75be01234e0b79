package model

import (
	"time"
)

const (
	RoleLecturer = "lecturer"
	RoleStudent  = "student"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	Phone          *string   `json:"phone,omitempty"`      // lecturers only
	Department     *string   `json:"department,omitempty"` // lecturers only
	Bio            *string   `json:"bio,omitempty"`        // lecturers only
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
