package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/dberrors"
)

var locationColumns = []string{
	"user_id", "role", "zone", "lat", "lng", "accuracy", "heading", "speed", "updated_at",
}

// LiveLocationRepository handles database operations for live locations
type LiveLocationRepository struct {
	db Runner
}

// NewLiveLocationRepository creates a new LiveLocationRepository
func NewLiveLocationRepository(db Runner) *LiveLocationRepository {
	return &LiveLocationRepository{db: db}
}

// Upsert writes the caller's single location row, creating it when missing
func (r *LiveLocationRepository) Upsert(ctx context.Context, loc *models.LiveLocation) (*models.LiveLocation, error) {
	query, args, err := upsertLocationQuery(loc).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var out *models.LiveLocation
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		out, err = scanLocation(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error saving location: %w", dberrors.Translate(err, nil))
	}
	return out, nil
}

func upsertLocationQuery(loc *models.LiveLocation) squirrel.InsertBuilder {
	return psql.Insert("live_locations").
		Columns("user_id", "role", "zone", "lat", "lng", "accuracy", "heading", "speed", "updated_at").
		Values(loc.UserID, string(loc.Role), zoneValue(loc.Zone), loc.Lat, loc.Lng, loc.Accuracy, loc.Heading, loc.Speed, squirrel.Expr("now()")).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			role = EXCLUDED.role, zone = EXCLUDED.zone,
			lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			accuracy = EXCLUDED.accuracy, heading = EXCLUDED.heading, speed = EXCLUDED.speed,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, role, zone, lat, lng, accuracy, heading, speed, updated_at`)
}

// Visible returns every location row the caller may see, most recent first
func (r *LiveLocationRepository) Visible(ctx context.Context) ([]*models.LiveLocation, error) {
	query, args, err := psql.Select(locationColumns...).From("live_locations").OrderBy("updated_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	locations := []*models.LiveLocation{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			loc, err := scanLocation(rows)
			if err != nil {
				return err
			}
			locations = append(locations, loc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing locations: %w", dberrors.Translate(err, nil))
	}
	return locations, nil
}

// ForUser returns the location row of userID
func (r *LiveLocationRepository) ForUser(ctx context.Context, userID uuid.UUID) (*models.LiveLocation, error) {
	query, args, err := psql.Select(locationColumns...).From("live_locations").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var loc *models.LiveLocation
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		loc, err = scanLocation(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, dberrors.Translate(err, apperrors.NewResourceNotFoundError("location not found"))
	}
	return loc, nil
}

func scanLocation(row pgx.Row) (*models.LiveLocation, error) {
	var (
		loc  models.LiveLocation
		role string
		zone *string
	)
	if err := row.Scan(&loc.UserID, &role, &zone, &loc.Lat, &loc.Lng, &loc.Accuracy, &loc.Heading, &loc.Speed, &loc.UpdatedAt); err != nil {
		return nil, err
	}
	loc.Role = models.Role(role)
	if zone != nil && *zone != "" {
		z := models.NormalizeZone(*zone)
		loc.Zone = &z
	}
	return &loc, nil
}
