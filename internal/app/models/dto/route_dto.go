package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// ListRoutesRequest filters the route listing
type ListRoutesRequest struct {
	Mine bool   `form:"mine"`
	Zone string `form:"zone"`
}

// SaveRouteRequest creates a route, or replaces one when ID is given
type SaveRouteRequest struct {
	ID      string                 `json:"id" binding:"omitempty,uuid"`
	Title   string                 `json:"title" binding:"required,max=200"`
	GeoJSON map[string]interface{} `json:"geojson" binding:"required"`
	Zone    string                 `json:"zone"`
}

// RouteResponse is a stored driving route
type RouteResponse struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	Title     string                 `json:"title"`
	GeoJSON   map[string]interface{} `json:"geojson"`
	Zone      *string                `json:"zone,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// ToRouteResponse converts a models.DrivingRoute
func ToRouteResponse(r *models.DrivingRoute) RouteResponse {
	return RouteResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		GeoJSON:   r.GeoJSON,
		Zone:      zoneString(r.Zone),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ToRouteResponses converts a list of routes
func ToRouteResponses(routes []*models.DrivingRoute) []RouteResponse {
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, ToRouteResponse(r))
	}
	return out
}
