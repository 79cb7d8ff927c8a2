package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/athome/driveops/internal/app/activity"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// Event types
const (
	EventMessage = "message"
	EventChange  = "change"
	EventAck     = "ack"
	EventError   = "error"

	CommandRead = "read"
)

// ackTimeout bounds one read receipt write
const ackTimeout = 5 * time.Second

// ReadAcker records read receipts for the connected viewer
type ReadAcker interface {
	MarkRead(ctx context.Context, viewerID, messageID uuid.UUID) error
}

// Event is a frame sent to the peer
type Event struct {
	Type         string               `json:"type"`
	Conversation string               `json:"conversation,omitempty"`
	Message      *dto.MessageResponse `json:"message,omitempty"`
	Change       *activity.Change     `json:"change,omitempty"`
	MessageID    *uuid.UUID           `json:"messageId,omitempty"`
	Retryable    bool                 `json:"retryable,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// Command is a frame received from the peer
type Command struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

// handleCommand executes one peer frame and returns the reply, if any
func (c *Client) handleCommand(raw []byte) *Event {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to unmarshal client command")
		return &Event{Type: EventError, Error: "malformed command"}
	}

	switch cmd.Type {
	case CommandRead:
		return c.handleRead(cmd)
	default:
		return &Event{Type: EventError, Error: "unknown command type"}
	}
}

func (c *Client) handleRead(cmd Command) *Event {
	id, err := uuid.Parse(cmd.MessageID)
	if err != nil {
		return &Event{Type: EventError, Error: "messageId must be a valid UUID"}
	}

	ctx, cancel := context.WithTimeout(c.ctx, ackTimeout)
	defer cancel()

	if err := c.acks.MarkRead(ctx, c.viewer.ID, id); err != nil {
		msg := "could not record read receipt"
		switch {
		case errors.Is(err, apperrors.ErrAuthorization):
			msg = "not permitted"
		case apperrors.Is(err, apperrors.ErrMessageNotFound, apperrors.ErrResourceNotFound):
			msg = "message not found"
		}
		return &Event{Type: EventError, MessageID: &id, Error: msg, Retryable: apperrors.Retryable(err)}
	}
	return &Event{Type: EventAck, MessageID: &id}
}
