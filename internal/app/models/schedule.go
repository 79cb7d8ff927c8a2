package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus is the lifecycle state of a lesson slot
type ScheduleStatus string

const (
	ScheduleAvailable       ScheduleStatus = "available"
	ScheduleBooked          ScheduleStatus = "booked"
	ScheduleCancelRequested ScheduleStatus = "cancel_requested"
	ScheduleCancelled       ScheduleStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleAvailable, ScheduleBooked, ScheduleCancelRequested, ScheduleCancelled:
		return true
	}
	return false
}

// Schedule is one lesson slot. Instructor and Client carry joined profile summaries.
type Schedule struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	InstructorID uuid.UUID      `json:"instructor_id" db:"instructor_id"`
	ClientID     *uuid.UUID     `json:"client_id,omitempty" db:"client_id"`
	TeamLeaderID *uuid.UUID     `json:"team_leader_id,omitempty" db:"team_leader_id"`
	RouteID      *uuid.UUID     `json:"route_id,omitempty" db:"route_id"`
	Zone         *Zone          `json:"zone,omitempty" db:"zone"`
	SlotStart    time.Time      `json:"slot_start" db:"slot_start"`
	SlotEnd      time.Time      `json:"slot_end" db:"slot_end"`
	Status       ScheduleStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`

	Instructor *ProfileSummary `json:"instructor,omitempty"`
	Client     *ProfileSummary `json:"client,omitempty"`
}

// ScheduleFilter narrows a schedule listing. Nil and zero fields are ignored.
type ScheduleFilter struct {
	InstructorID *uuid.UUID
	ClientID     *uuid.UUID
	TeamLeaderID *uuid.UUID
	Zone         Zone
	Status       ScheduleStatus
	From         *time.Time
	To           *time.Time
}

// ScheduleTransition is a guarded status change applied in one statement.
// The update only happens while the slot is in one of From.
type ScheduleTransition struct {
	Name        string
	From        []ScheduleStatus
	To          ScheduleStatus
	ClientID    *uuid.UUID
	ClearClient bool
}

// Allows reports whether the transition may start from s
func (t ScheduleTransition) Allows(s ScheduleStatus) bool {
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}

// BookSlot books an available slot for clientID
func BookSlot(clientID uuid.UUID) ScheduleTransition {
	return ScheduleTransition{
		Name:     "book",
		From:     []ScheduleStatus{ScheduleAvailable},
		To:       ScheduleBooked,
		ClientID: &clientID,
	}
}

var (
	// RequestCancellation is the client asking to drop a booked lesson
	RequestCancellation = ScheduleTransition{
		Name: "request_cancel",
		From: []ScheduleStatus{ScheduleBooked},
		To:   ScheduleCancelRequested,
	}

	// ApproveCancellation releases the client and closes the slot
	ApproveCancellation = ScheduleTransition{
		Name:        "approve_cancel",
		From:        []ScheduleStatus{ScheduleCancelRequested},
		To:          ScheduleCancelled,
		ClearClient: true,
	}

	// DeclineCancellation keeps the lesson booked
	DeclineCancellation = ScheduleTransition{
		Name: "decline_cancel",
		From: []ScheduleStatus{ScheduleCancelRequested},
		To:   ScheduleBooked,
	}

	// ReopenSlot makes the slot bookable again
	ReopenSlot = ScheduleTransition{
		Name:        "reopen",
		From:        []ScheduleStatus{ScheduleBooked, ScheduleCancelRequested, ScheduleCancelled},
		To:          ScheduleAvailable,
		ClearClient: true,
	}
)
