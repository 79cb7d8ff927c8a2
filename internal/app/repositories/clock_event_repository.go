package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/dberrors"
)

// ClockEventRepository handles database operations for attendance events
type ClockEventRepository struct {
	db Runner
}

// NewClockEventRepository creates a new ClockEventRepository
func NewClockEventRepository(db Runner) *ClockEventRepository {
	return &ClockEventRepository{db: db}
}

// Insert records an event for userID stamped by the database clock
func (r *ClockEventRepository) Insert(ctx context.Context, userID uuid.UUID, eventType models.ClockEventType, meta map[string]interface{}) (*models.ClockEvent, error) {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	query, args, err := psql.Insert("clock_events").
		Columns("user_id", "type", "meta").
		Values(userID, string(eventType), meta).
		Suffix("RETURNING id, ts").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	event := &models.ClockEvent{UserID: userID, Type: eventType, Meta: meta}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, args...).Scan(&event.ID, &event.TS)
	})
	if err != nil {
		return nil, fmt.Errorf("error recording clock event: %w", dberrors.Translate(err, nil))
	}
	return event, nil
}

// Since returns the events at or after since, newest first, with the author's
// profile summary. A non-nil userID restricts the result to that user.
func (r *ClockEventRepository) Since(ctx context.Context, since time.Time, userID *uuid.UUID, limit uint64) ([]*models.ClockEvent, error) {
	query, args, err := clockEventsQuery(since, userID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	events := []*models.ClockEvent{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e        models.ClockEvent
				typ      string
				fullName *string
				role     *string
				zone     *string
			)
			if err := rows.Scan(&e.ID, &e.UserID, &typ, &e.TS, &e.Meta, &fullName, &role, &zone); err != nil {
				return err
			}
			e.Type = models.ClockEventType(typ)
			if role != nil {
				e.User = &models.ProfileSummary{Role: models.Role(*role)}
				if fullName != nil {
					e.User.FullName = *fullName
				}
				if zone != nil {
					z := models.NormalizeZone(*zone)
					e.User.Zone = &z
				}
			}
			events = append(events, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing clock events: %w", dberrors.Translate(err, nil))
	}
	return events, nil
}

func clockEventsQuery(since time.Time, userID *uuid.UUID, limit uint64) squirrel.SelectBuilder {
	qb := psql.Select("e.id", "e.user_id", "e.type", "e.ts", "e.meta", "p.full_name", "p.role", "p.zone").
		From("clock_events e").
		LeftJoin("profiles p ON p.id = e.user_id").
		Where(squirrel.GtOrEq{"e.ts": since})
	if userID != nil {
		qb = qb.Where(squirrel.Eq{"e.user_id": *userID})
	}
	return qb.OrderBy("e.ts DESC", "e.id DESC").Limit(limit)
}
