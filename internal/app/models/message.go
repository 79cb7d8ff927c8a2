package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a stored chat message. Exactly one addressing form is populated,
// consistent with Scope; ReadBy only ever grows.
type Message struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	SenderID  uuid.UUID   `json:"sender_id" db:"sender_id"`
	Scope     Scope       `json:"scope" db:"scope"`
	ToUserID  *uuid.UUID  `json:"to_user_id" db:"to_user_id"`
	ToRole    *Role       `json:"to_role" db:"to_role"`
	ToZone    *Zone       `json:"to_zone" db:"to_zone"`
	ThreadID  *string     `json:"thread_id,omitempty" db:"thread_id"`
	Body      string      `json:"body" db:"body"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	ReadBy    []uuid.UUID `json:"read_by" db:"read_by"`
}

// IsReadBy reports whether viewer has acknowledged the message
func (m *Message) IsReadBy(viewer uuid.UUID) bool {
	for _, id := range m.ReadBy {
		if id == viewer {
			return true
		}
	}
	return false
}
