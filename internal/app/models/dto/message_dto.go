package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/models"
)

// --- Request DTOs ---

// SendDirectRequest addresses a message to a single user
type SendDirectRequest struct {
	ToUserID string `json:"toUserId" binding:"required,uuid"`
	Body     string `json:"body" binding:"required,max=4000"`
}

// SendRoleRequest addresses every holder of a role inside a zone
type SendRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
	Zone string `json:"zone" binding:"required"`
	Body string `json:"body" binding:"required,max=4000"`
}

// SendZoneRequest addresses everyone in a zone
type SendZoneRequest struct {
	Zone string `json:"zone" binding:"required"`
	Body string `json:"body" binding:"required,max=4000"`
}

// SendAllRequest addresses everyone
type SendAllRequest struct {
	Body string `json:"body" binding:"required,max=4000"`
}

// MarkReadBatchRequest acknowledges several messages at once
type MarkReadBatchRequest struct {
	MessageIDs []string `json:"messageIds" binding:"required,min=1,max=500,dive,uuid"`
}

// --- Response DTOs ---

// MessageResponse is a message as seen by one viewer
type MessageResponse struct {
	ID        uuid.UUID   `json:"id"`
	SenderID  uuid.UUID   `json:"senderId"`
	Scope     string      `json:"scope"`
	ToUserID  *uuid.UUID  `json:"toUserId,omitempty"`
	ToRole    *string     `json:"toRole,omitempty"`
	ToZone    *string     `json:"toZone,omitempty"`
	ThreadID  *string     `json:"threadId,omitempty"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"createdAt"`
	ReadBy    []uuid.UUID `json:"readBy"`
	Read      bool        `json:"read"`
}

// ThreadResponse is one conversation in chronological order
type ThreadResponse struct {
	Conversation string            `json:"conversation"`
	Messages     []MessageResponse `json:"messages"`
}

// MarkReadBatchResponse lists which messages were acknowledged and which failed
type MarkReadBatchResponse struct {
	Marked []uuid.UUID `json:"marked"`
	Failed []uuid.UUID `json:"failed"`
}

// ToMessageResponse converts a models.Message for viewer
func ToMessageResponse(m *models.Message, viewer uuid.UUID) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Scope:     string(m.Scope),
		ToUserID:  m.ToUserID,
		ThreadID:  m.ThreadID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		ReadBy:    m.ReadBy,
		Read:      m.SenderID == viewer || m.IsReadBy(viewer),
	}
	if resp.ReadBy == nil {
		resp.ReadBy = []uuid.UUID{}
	}
	if m.ToRole != nil {
		r := string(*m.ToRole)
		resp.ToRole = &r
	}
	if m.ToZone != nil {
		z := string(*m.ToZone)
		resp.ToZone = &z
	}
	return resp
}

// ToMessageResponses converts a thread for viewer
func ToMessageResponses(messages []*models.Message, viewer uuid.UUID) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, ToMessageResponse(m, viewer))
	}
	return out
}
