package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// ReceiptStore reads and extends the read_by set of a message.
// AddReader must be a no-op when the reader is already present.
type ReceiptStore interface {
	ReadBy(ctx context.Context, messageID uuid.UUID) ([]uuid.UUID, error)
	AddReader(ctx context.Context, messageID, viewerID uuid.UUID) error
}

// ReadTracker records read receipts.
type ReadTracker struct {
	store  ReceiptStore
	logger zerolog.Logger
}

// NewReadTracker creates a ReadTracker
func NewReadTracker(store ReceiptStore, logger zerolog.Logger) *ReadTracker {
	return &ReadTracker{store: store, logger: logger}
}

// MarkRead adds viewerID to the message's read_by set. Calling it again for the
// same pair performs no write.
func (t *ReadTracker) MarkRead(ctx context.Context, messageID, viewerID uuid.UUID) error {
	if messageID == uuid.Nil {
		return apperrors.NewValidationError("message_id", "is required")
	}
	if viewerID == uuid.Nil {
		return apperrors.NewValidationError("viewer_id", "is required")
	}

	readers, err := t.store.ReadBy(ctx, messageID)
	if err != nil {
		return err
	}
	for _, id := range readers {
		if id == viewerID {
			return nil
		}
	}

	if err := t.store.AddReader(ctx, messageID, viewerID); err != nil {
		return err
	}

	t.logger.Debug().
		Str("messageID", messageID.String()).
		Str("viewerID", viewerID.String()).
		Msg("Message marked as read")
	return nil
}

// MarkThreadRead marks every message in order. A failure on one message does not
// stop the others; failures are returned together as *apperrors.PartialFailure.
// Messages already carrying viewerID locally are skipped since read_by never shrinks.
func (t *ReadTracker) MarkThreadRead(ctx context.Context, messages []*models.Message, viewerID uuid.UUID) error {
	failures := &apperrors.PartialFailure{}

	for _, m := range messages {
		if m == nil || m.IsReadBy(viewerID) {
			continue
		}
		if err := t.MarkRead(ctx, m.ID, viewerID); err != nil {
			t.logger.Warn().Err(err).
				Str("messageID", m.ID.String()).
				Str("viewerID", viewerID.String()).
				Msg("Failed to mark message as read")
			failures.Add(m.ID, err)
			continue
		}
		m.ReadBy = append(m.ReadBy, viewerID)
	}

	if failures.HasFailures() {
		return failures
	}
	return nil
}
