package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// CreateMaterialRequest registers a material. StoragePath is the object key
// of an uploaded file or the URL of a link.
type CreateMaterialRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Type        string   `json:"type" binding:"required,oneof=file link"`
	StoragePath string   `json:"storagePath" binding:"required"`
	RoleScope   []string `json:"roleScope" binding:"omitempty,dive,role"`
	Zone        string   `json:"zone"`
}

// UpdateMaterialRequest edits material metadata. An empty zone string clears the zone.
type UpdateMaterialRequest struct {
	Title     *string  `json:"title" binding:"omitempty,max=200"`
	RoleScope []string `json:"roleScope" binding:"omitempty,dive,role"`
	Zone      *string  `json:"zone"`
}

// ReviewMaterialRequest approves or withdraws a material
type ReviewMaterialRequest struct {
	Reviewed *bool `json:"reviewed" binding:"required"`
}

// MaterialResponse is one learning material
type MaterialResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Type        string     `json:"type"`
	StoragePath *string    `json:"storagePath,omitempty"`
	RoleScope   []string   `json:"roleScope"`
	Zone        *string    `json:"zone,omitempty"`
	Reviewed    bool       `json:"reviewedByAdmin"`
	CreatedBy   *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ToMaterialResponse converts a models.Material
func ToMaterialResponse(m *models.Material) MaterialResponse {
	scope := make([]string, len(m.RoleScope))
	for i, r := range m.RoleScope {
		scope[i] = string(r)
	}
	return MaterialResponse{
		ID:          m.ID,
		Title:       m.Title,
		Type:        string(m.Type),
		StoragePath: m.StoragePath,
		RoleScope:   scope,
		Zone:        zoneString(m.Zone),
		Reviewed:    m.Reviewed,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToMaterialResponses converts a list of materials
func ToMaterialResponses(materials []*models.Material) []MaterialResponse {
	out := make([]MaterialResponse, 0, len(materials))
	for _, m := range materials {
		out = append(out, ToMaterialResponse(m))
	}
	return out
}
