package models

import (
	"time"

	"github.com/google/uuid"
)

// LiveLocation is the last reported position of a user. One row per user.
type LiveLocation struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	Zone      *Zone     `json:"zone,omitempty" db:"zone"`
	Lat       *float64  `json:"lat" db:"lat"`
	Lng       *float64  `json:"lng" db:"lng"`
	Accuracy  *float64  `json:"accuracy,omitempty" db:"accuracy"`
	Heading   *float64  `json:"heading,omitempty" db:"heading"`
	Speed     *float64  `json:"speed,omitempty" db:"speed"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Coordinates is a position report
type Coordinates struct {
	Lat      float64
	Lng      float64
	Accuracy *float64
	Heading  *float64
	Speed    *float64
}
