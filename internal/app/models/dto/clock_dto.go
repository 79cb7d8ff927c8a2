package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// ClockEventRequest is the optional body of a clock action
type ClockEventRequest struct {
	Meta map[string]interface{} `json:"meta"`
}

// ClockEventsRequest selects the attendance window
type ClockEventsRequest struct {
	Days   int    `form:"days,default=7" binding:"min=1,max=90"`
	UserID string `form:"userId" binding:"omitempty,uuid"`
}

// ClockEventResponse is one attendance record
type ClockEventResponse struct {
	ID       int64                  `json:"id"`
	UserID   uuid.UUID              `json:"userId"`
	Type     string                 `json:"type"`
	TS       time.Time              `json:"ts"`
	Meta     map[string]interface{} `json:"meta,omitempty"`
	FullName string                 `json:"fullName,omitempty"`
	Role     string                 `json:"role,omitempty"`
	Zone     *string                `json:"zone,omitempty"`
}

// ToClockEventResponse converts a models.ClockEvent
func ToClockEventResponse(e *models.ClockEvent) ClockEventResponse {
	resp := ClockEventResponse{
		ID:     e.ID,
		UserID: e.UserID,
		Type:   string(e.Type),
		TS:     e.TS,
		Meta:   e.Meta,
	}
	if e.User != nil {
		resp.FullName = e.User.FullName
		resp.Role = string(e.User.Role)
		if e.User.Zone != nil {
			z := string(*e.User.Zone)
			resp.Zone = &z
		}
	}
	return resp
}

// ToClockEventResponses converts a list of events
func ToClockEventResponses(events []*models.ClockEvent) []ClockEventResponse {
	out := make([]ClockEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ToClockEventResponse(e))
	}
	return out
}
