package models

import (
	"time"

	"github.com/google/uuid"
)

// MaterialType is how a material's content is reached
type MaterialType string

const (
	MaterialFile MaterialType = "file"
	MaterialLink MaterialType = "link"
)

// Valid reports whether t is a known type
func (t MaterialType) Valid() bool {
	return t == MaterialFile || t == MaterialLink
}

// Material is a learning resource. StoragePath is an object key for files and
// the URL for links. Unreviewed materials are only listed to reviewers.
type Material struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Type        MaterialType `json:"type" db:"type"`
	StoragePath *string      `json:"storage_path,omitempty" db:"storage_path"`
	RoleScope   []Role       `json:"role_scope" db:"role_scope"`
	Zone        *Zone        `json:"zone,omitempty" db:"zone"`
	Reviewed    bool         `json:"reviewed_by_admin" db:"reviewed_by_admin"`
	CreatedBy   *uuid.UUID   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// VisibleTo reports whether role is in the material's audience. An empty
// scope is open to every role.
func (m *Material) VisibleTo(role Role) bool {
	if len(m.RoleScope) == 0 {
		return true
	}
	for _, r := range m.RoleScope {
		if r == role {
			return true
		}
	}
	return false
}

// MaterialUpdate holds the editable metadata. Nil fields are left unchanged.
type MaterialUpdate struct {
	Title     *string
	RoleScope []Role
	Zone      *Zone
	ClearZone bool
}

// Empty reports whether the update changes nothing
func (u MaterialUpdate) Empty() bool {
	return u.Title == nil && u.RoleScope == nil && u.Zone == nil && !u.ClearZone
}

// MaterialFilter narrows a material listing. A zone keeps zone-less materials;
// a role keeps materials with an empty scope.
type MaterialFilter struct {
	Zone     Zone
	Role     Role
	Reviewed *bool
}
