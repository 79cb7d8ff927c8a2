package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/dberrors"
)

var routeColumns = []string{"id", "user_id", "title", "geojson", "zone", "created_at", "updated_at"}

// DrivingRouteRepository handles database operations for driving routes
type DrivingRouteRepository struct {
	db Runner
}

// NewDrivingRouteRepository creates a new DrivingRouteRepository
func NewDrivingRouteRepository(db Runner) *DrivingRouteRepository {
	return &DrivingRouteRepository{db: db}
}

// List returns the visible routes matching filter, newest first
func (r *DrivingRouteRepository) List(ctx context.Context, filter models.DrivingRouteFilter) ([]*models.DrivingRoute, error) {
	query, args, err := listRoutesQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	routes := []*models.DrivingRoute{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			route, err := scanRoute(rows)
			if err != nil {
				return err
			}
			routes = append(routes, route)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing driving routes: %w", dberrors.Translate(err, nil))
	}
	return routes, nil
}

func listRoutesQuery(filter models.DrivingRouteFilter) squirrel.SelectBuilder {
	qb := psql.Select(routeColumns...).From("driving_routes")
	if filter.UserID != nil {
		qb = qb.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.Zone != "" {
		qb = qb.Where(squirrel.Eq{"zone": string(models.NormalizeZone(string(filter.Zone)))})
	}
	return qb.OrderBy("created_at DESC", "id ASC")
}

// GetByID retrieves a route by id
func (r *DrivingRouteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DrivingRoute, error) {
	query, args, err := psql.Select(routeColumns...).From("driving_routes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args, "error getting driving route")
}

// Save creates the route, or updates title, shape and zone when the id exists.
// The owner of an existing route never changes.
func (r *DrivingRouteRepository) Save(ctx context.Context, route *models.DrivingRoute) (*models.DrivingRoute, error) {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	query, args, err := saveRouteQuery(route).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args, "error saving driving route")
}

func saveRouteQuery(route *models.DrivingRoute) squirrel.InsertBuilder {
	geojson := route.GeoJSON
	if geojson == nil {
		geojson = map[string]interface{}{}
	}
	return psql.Insert("driving_routes").
		Columns("id", "user_id", "title", "geojson", "zone").
		Values(route.ID, route.UserID, route.Title, geojson, zoneValue(route.Zone)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, geojson = EXCLUDED.geojson, zone = EXCLUDED.zone, updated_at = now()
		RETURNING ` + strings.Join(routeColumns, ", "))
}

// Delete removes the route
func (r *DrivingRouteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("driving_routes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrRouteNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting driving route: %w", dberrors.Translate(err, nil))
	}
	return nil
}

func (r *DrivingRouteRepository) one(ctx context.Context, query string, args []interface{}, action string) (*models.DrivingRoute, error) {
	var route *models.DrivingRoute
	err := r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		route, err = scanRoute(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, dberrors.Translate(err, apperrors.ErrRouteNotFound))
	}
	return route, nil
}

func scanRoute(row pgx.Row) (*models.DrivingRoute, error) {
	var (
		route models.DrivingRoute
		zone  *string
	)
	if err := row.Scan(&route.ID, &route.UserID, &route.Title, &route.GeoJSON, &zone, &route.CreatedAt, &route.UpdatedAt); err != nil {
		return nil, err
	}
	route.Zone = zoneOf(zone)
	return &route, nil
}
