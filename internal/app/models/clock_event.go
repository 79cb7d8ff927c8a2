package models

import (
	"time"

	"github.com/google/uuid"
)

// ClockEventType is the kind of attendance event
type ClockEventType string

const (
	ClockIn         ClockEventType = "in"
	ClockOut        ClockEventType = "out"
	ClockClientShow ClockEventType = "client_showed_up"
)

// Valid reports whether t is a known event type
func (t ClockEventType) Valid() bool {
	switch t {
	case ClockIn, ClockOut, ClockClientShow:
		return true
	}
	return false
}

// ClockEvent is one attendance record. User carries the joined profile summary.
type ClockEvent struct {
	ID     int64                  `json:"id" db:"id"`
	UserID uuid.UUID              `json:"user_id" db:"user_id"`
	Type   ClockEventType         `json:"type" db:"type"`
	TS     time.Time              `json:"ts" db:"ts"`
	Meta   map[string]interface{} `json:"meta" db:"meta"`

	User *ProfileSummary `json:"user,omitempty"`
}

// ProfileSummary is the small slice of a profile embedded in other rows
type ProfileSummary struct {
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	Zone     *Zone  `json:"zone,omitempty"`
}
