package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// ListSchedulesRequest filters the slot listing. Mine narrows it to the
// caller's own slots as instructor, client or team leader.
type ListSchedulesRequest struct {
	Mine         bool       `form:"mine"`
	InstructorID string     `form:"instructorId" binding:"omitempty,uuid"`
	Status       string     `form:"status" binding:"omitempty,oneof=available booked cancel_requested cancelled"`
	Zone         string     `form:"zone"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CreateScheduleRequest opens a slot for an instructor
type CreateScheduleRequest struct {
	InstructorID string    `json:"instructorId" binding:"required,uuid"`
	SlotStart    time.Time `json:"slotStart" binding:"required"`
	SlotEnd      time.Time `json:"slotEnd" binding:"required"`
	Zone         string    `json:"zone"`
	RouteID      string    `json:"routeId" binding:"omitempty,uuid"`
}

// BookScheduleRequest books a slot. ClientID defaults to the caller.
type BookScheduleRequest struct {
	ClientID string `json:"clientId" binding:"omitempty,uuid"`
}

// AttachRouteRequest sets or clears the route of a slot
type AttachRouteRequest struct {
	RouteID *string `json:"routeId" binding:"omitempty,uuid"`
}

// ProfileSummaryResponse is the joined name, role and zone of a participant
type ProfileSummaryResponse struct {
	FullName string  `json:"fullName"`
	Role     string  `json:"role"`
	Zone     *string `json:"zone,omitempty"`
}

// ScheduleResponse is one lesson slot
type ScheduleResponse struct {
	ID           uuid.UUID               `json:"id"`
	InstructorID uuid.UUID               `json:"instructorId"`
	ClientID     *uuid.UUID              `json:"clientId,omitempty"`
	TeamLeaderID *uuid.UUID              `json:"teamLeaderId,omitempty"`
	RouteID      *uuid.UUID              `json:"routeId,omitempty"`
	Zone         *string                 `json:"zone,omitempty"`
	SlotStart    time.Time               `json:"slotStart"`
	SlotEnd      time.Time               `json:"slotEnd"`
	Status       string                  `json:"status"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
	Instructor   *ProfileSummaryResponse `json:"instructor,omitempty"`
	Client       *ProfileSummaryResponse `json:"client,omitempty"`
}

// ToScheduleResponse converts a models.Schedule
func ToScheduleResponse(s *models.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:           s.ID,
		InstructorID: s.InstructorID,
		ClientID:     s.ClientID,
		TeamLeaderID: s.TeamLeaderID,
		RouteID:      s.RouteID,
		Zone:         zoneString(s.Zone),
		SlotStart:    s.SlotStart,
		SlotEnd:      s.SlotEnd,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Instructor:   toSummary(s.Instructor),
		Client:       toSummary(s.Client),
	}
}

// ToScheduleResponses converts a list of slots
func ToScheduleResponses(schedules []*models.Schedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, ToScheduleResponse(s))
	}
	return out
}

func toSummary(p *models.ProfileSummary) *ProfileSummaryResponse {
	if p == nil {
		return nil
	}
	return &ProfileSummaryResponse{FullName: p.FullName, Role: string(p.Role), Zone: zoneString(p.Zone)}
}

func zoneString(z *models.Zone) *string {
	if z == nil {
		return nil
	}
	s := string(*z)
	return &s
}
