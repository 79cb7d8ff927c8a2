package models

import (
	"time"

	"github.com/google/uuid"
)

// DrivingRoute is a lesson route drawn on the map, stored as GeoJSON.
type DrivingRoute struct {
	ID        uuid.UUID              `json:"id" db:"id"`
	UserID    uuid.UUID              `json:"user_id" db:"user_id"`
	Title     string                 `json:"title" db:"title"`
	GeoJSON   map[string]interface{} `json:"geojson" db:"geojson"`
	Zone      *Zone                  `json:"zone,omitempty" db:"zone"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// DrivingRouteFilter narrows a route listing
type DrivingRouteFilter struct {
	UserID *uuid.UUID
	Zone   Zone
}
