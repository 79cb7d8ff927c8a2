package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// UpdateLocationRequest is a position report from a device
type UpdateLocationRequest struct {
	Lat      *float64 `json:"lat" binding:"required,latitude"`
	Lng      *float64 `json:"lng" binding:"required,longitude"`
	Accuracy *float64 `json:"accuracy" binding:"omitempty,min=0"`
	Heading  *float64 `json:"heading" binding:"omitempty,min=0,max=360"`
	Speed    *float64 `json:"speed" binding:"omitempty,min=0"`
}

// ToModel converts the request into models.Coordinates
func (r UpdateLocationRequest) ToModel() models.Coordinates {
	c := models.Coordinates{
		Accuracy: r.Accuracy,
		Heading:  r.Heading,
		Speed:    r.Speed,
	}
	if r.Lat != nil {
		c.Lat = *r.Lat
	}
	if r.Lng != nil {
		c.Lng = *r.Lng
	}
	return c
}

// LocationResponse is the last known position of a user
type LocationResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Role      string    `json:"role"`
	Zone      *string   `json:"zone,omitempty"`
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToLocationResponse converts a models.LiveLocation
func ToLocationResponse(l *models.LiveLocation) LocationResponse {
	resp := LocationResponse{
		UserID:    l.UserID,
		Role:      string(l.Role),
		Lat:       l.Lat,
		Lng:       l.Lng,
		Accuracy:  l.Accuracy,
		Heading:   l.Heading,
		Speed:     l.Speed,
		UpdatedAt: l.UpdatedAt,
	}
	if l.Zone != nil {
		z := string(*l.Zone)
		resp.Zone = &z
	}
	return resp
}

// ToLocationResponses converts a list of locations
func ToLocationResponses(locs []*models.LiveLocation) []LocationResponse {
	out := make([]LocationResponse, 0, len(locs))
	for _, l := range locs {
		out = append(out, ToLocationResponse(l))
	}
	return out
}
