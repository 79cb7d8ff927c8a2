package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// UpdateProfileRequest carries the self-editable profile fields. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	FullName  *string `json:"fullName" binding:"omitempty,min=1,max=120"`
	Phone     *string `json:"phone" binding:"omitempty,max=40"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

// ToModel converts the request into a models.ProfileUpdate
func (r UpdateProfileRequest) ToModel() models.ProfileUpdate {
	return models.ProfileUpdate{
		FullName:  r.FullName,
		Phone:     r.Phone,
		AvatarURL: r.AvatarURL,
	}
}

// ListProfilesRequest filters the profile directory
type ListProfilesRequest struct {
	Role   string `form:"role" binding:"omitempty,role"`
	Zone   string `form:"zone"`
	Status string `form:"status" binding:"omitempty,status"`
	Query  string `form:"q" binding:"omitempty,max=100"`
}

// ProfileResponse is the public form of a profile
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     *string   `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Role      string    `json:"role"`
	Zone      *string   `json:"zone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MyProfileResponse is the signed-in user's profile with the page to land on.
// Profile is nil when the account has not signed up yet.
type MyProfileResponse struct {
	Profile *ProfileResponse `json:"profile"`
	Status  string           `json:"status"`
	Route   string           `json:"route"`
}

// ApprovalResponse reports how an approval wait ended
type ApprovalResponse struct {
	Outcome  string `json:"outcome"`
	Status   string `json:"status,omitempty"`
	Route    string `json:"route,omitempty"`
	Attempts int    `json:"attempts"`
}

// ToProfileResponse converts a models.Profile
func ToProfileResponse(p *models.Profile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Phone:     p.Phone,
		AvatarURL: p.AvatarURL,
		Role:      string(p.Role),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Zone != nil {
		z := string(*p.Zone)
		resp.Zone = &z
	}
	return resp
}

// ToProfileResponses converts a list of profiles
func ToProfileResponses(profiles []*models.Profile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToProfileResponse(p))
	}
	return out
}
