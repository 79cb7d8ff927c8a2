package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the per-user record kept next to the identity provider's user.
type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Role      Role      `json:"role" db:"role"`
	Zone      *Zone     `json:"zone,omitempty" db:"zone"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileUpdate holds the self-editable fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// Empty reports whether the update changes nothing
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil && u.AvatarURL == nil
}

// ProfileFilter narrows ListProfiles. Zero values are ignored.
type ProfileFilter struct {
	Role   Role
	Zone   Zone
	Status Status
}

const (
	SignupPath  = "/signup.html"
	PendingPath = "/pending.html"
)

// PostLoginRoute is where the dashboards send a signed-in user. A missing
// profile goes to sign-up, unapproved accounts wait on the pending page and
// suspended accounts get no route.
func PostLoginRoute(p *Profile) string {
	if p == nil {
		return SignupPath
	}
	switch p.Status {
	case StatusApproved:
		return p.Role.DashboardPath()
	case StatusSuspended:
		return ""
	default:
		return PendingPath
	}
}
