package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentKind tells the two kinds of assignment rows apart
type AssignmentKind string

const (
	// AssignmentInstructor places an instructor under a team leader
	AssignmentInstructor AssignmentKind = "instructor"
	// AssignmentClient places a client with an instructor
	AssignmentClient AssignmentKind = "client"
)

// Assignment links an instructor to a team leader, or a client to an instructor.
type Assignment struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	InstructorID uuid.UUID  `json:"instructor_id" db:"instructor_id"`
	TeamLeaderID *uuid.UUID `json:"team_leader_id,omitempty" db:"team_leader_id"`
	ClientID     *uuid.UUID `json:"client_id,omitempty" db:"client_id"`
	Zone         *Zone      `json:"zone,omitempty" db:"zone"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	Instructor *ProfileSummary `json:"instructor,omitempty"`
	TeamLeader *ProfileSummary `json:"team_leader,omitempty"`
	Client     *ProfileSummary `json:"client,omitempty"`
}

// Kind derives the assignment kind from the row
func (a *Assignment) Kind() AssignmentKind {
	if a.ClientID != nil {
		return AssignmentClient
	}
	return AssignmentInstructor
}

// AssignmentFilter narrows an assignment listing. Nil and zero fields are ignored.
type AssignmentFilter struct {
	InstructorID *uuid.UUID
	TeamLeaderID *uuid.UUID
	ClientID     *uuid.UUID
	Zone         Zone
	Kind         AssignmentKind
}
