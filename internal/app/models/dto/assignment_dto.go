package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// ListAssignmentsRequest filters the assignment listing
type ListAssignmentsRequest struct {
	Mine bool   `form:"mine"`
	Kind string `form:"kind" binding:"omitempty,oneof=instructor client"`
	Zone string `form:"zone"`
}

// AssignInstructorRequest places an instructor under a team leader
type AssignInstructorRequest struct {
	InstructorID string `json:"instructorId" binding:"required,uuid"`
	TeamLeaderID string `json:"teamLeaderId" binding:"omitempty,uuid"`
	Zone         string `json:"zone"`
}

// AssignClientRequest places a client with an instructor. A zone also moves the client's profile.
type AssignClientRequest struct {
	ClientID     string `json:"clientId" binding:"required,uuid"`
	InstructorID string `json:"instructorId" binding:"required,uuid"`
	Zone         string `json:"zone"`
}

// AssignmentResponse is one assignment row
type AssignmentResponse struct {
	ID           uuid.UUID               `json:"id"`
	Kind         string                  `json:"kind"`
	InstructorID uuid.UUID               `json:"instructorId"`
	TeamLeaderID *uuid.UUID              `json:"teamLeaderId,omitempty"`
	ClientID     *uuid.UUID              `json:"clientId,omitempty"`
	Zone         *string                 `json:"zone,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
	Instructor   *ProfileSummaryResponse `json:"instructor,omitempty"`
	TeamLeader   *ProfileSummaryResponse `json:"teamLeader,omitempty"`
	Client       *ProfileSummaryResponse `json:"client,omitempty"`
}

// ToAssignmentResponse converts a models.Assignment
func ToAssignmentResponse(a *models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           a.ID,
		Kind:         string(a.Kind()),
		InstructorID: a.InstructorID,
		TeamLeaderID: a.TeamLeaderID,
		ClientID:     a.ClientID,
		Zone:         zoneString(a.Zone),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Instructor:   toSummary(a.Instructor),
		TeamLeader:   toSummary(a.TeamLeader),
		Client:       toSummary(a.Client),
	}
}

// ToAssignmentResponses converts a list of assignments
func ToAssignmentResponses(assignments []*models.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, ToAssignmentResponse(a))
	}
	return out
}
