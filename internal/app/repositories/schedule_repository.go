package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/dberrors"
)

var scheduleColumns = []string{
	"id", "instructor_id", "client_id", "team_leader_id", "route_id", "zone",
	"slot_start", "slot_end", "status", "created_at", "updated_at",
}

// ScheduleRepository handles database operations for lesson slots
type ScheduleRepository struct {
	db Runner
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db Runner) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create opens a new slot. The status always starts as available.
func (r *ScheduleRepository) Create(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	return r.one(ctx, insertScheduleQuery(s), "error creating schedule")
}

func insertScheduleQuery(s *models.Schedule) squirrel.InsertBuilder {
	return psql.Insert("schedules").
		Columns("instructor_id", "team_leader_id", "route_id", "zone", "slot_start", "slot_end", "status").
		Values(s.InstructorID, s.TeamLeaderID, s.RouteID, zoneValue(s.Zone), s.SlotStart, s.SlotEnd, string(models.ScheduleAvailable)).
		Suffix("RETURNING " + strings.Join(scheduleColumns, ", "))
}

// GetByID returns one slot with its instructor and client summaries
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	query, args, err := schedulesQuery().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s *models.Schedule
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		s, err = scanJoinedSchedule(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error getting schedule: %w", dberrors.Translate(err, apperrors.ErrScheduleNotFound))
	}
	return s, nil
}

// List returns the visible slots matching filter, earliest first
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]*models.Schedule, error) {
	query, args, err := listSchedulesQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	schedules := []*models.Schedule{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanJoinedSchedule(rows)
			if err != nil {
				return err
			}
			schedules = append(schedules, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing schedules: %w", dberrors.Translate(err, nil))
	}
	return schedules, nil
}

func schedulesQuery() squirrel.SelectBuilder {
	cols := make([]string, 0, len(scheduleColumns)+6)
	for _, c := range scheduleColumns {
		cols = append(cols, "s."+c)
	}
	cols = append(cols, "i.full_name", "i.role", "i.zone", "c.full_name", "c.role", "c.zone")
	return psql.Select(cols...).
		From("schedules s").
		LeftJoin("profiles i ON i.id = s.instructor_id").
		LeftJoin("profiles c ON c.id = s.client_id")
}

func listSchedulesQuery(filter models.ScheduleFilter) squirrel.SelectBuilder {
	qb := schedulesQuery()
	if filter.InstructorID != nil {
		qb = qb.Where(squirrel.Eq{"s.instructor_id": *filter.InstructorID})
	}
	if filter.ClientID != nil {
		qb = qb.Where(squirrel.Eq{"s.client_id": *filter.ClientID})
	}
	if filter.TeamLeaderID != nil {
		qb = qb.Where(squirrel.Eq{"s.team_leader_id": *filter.TeamLeaderID})
	}
	if filter.Zone != "" {
		qb = qb.Where(squirrel.Eq{"s.zone": string(models.NormalizeZone(string(filter.Zone)))})
	}
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"s.status": string(filter.Status)})
	}
	if filter.From != nil {
		qb = qb.Where(squirrel.GtOrEq{"s.slot_start": *filter.From})
	}
	if filter.To != nil {
		qb = qb.Where(squirrel.Lt{"s.slot_start": *filter.To})
	}
	return qb.OrderBy("s.slot_start ASC", "s.id ASC")
}

// Transition applies t to the slot id. The update is guarded by the slot's
// current status; a slot in any other state yields a conflict naming it.
func (r *ScheduleRepository) Transition(ctx context.Context, id uuid.UUID, t models.ScheduleTransition) (*models.Schedule, error) {
	query, args, err := transitionScheduleQuery(id, t).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	current, currentArgs, err := psql.Select("status").From("schedules").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s *models.Schedule
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		s, err = scanSchedule(tx.QueryRow(ctx, query, args...))
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		var status string
		if err := tx.QueryRow(ctx, current, currentArgs...).Scan(&status); err != nil {
			return err
		}
		return apperrors.NewConflictError(fmt.Sprintf("cannot %s: schedule is %s", t.Name, status))
	})
	if err != nil {
		return nil, fmt.Errorf("error updating schedule: %w", dberrors.Translate(err, apperrors.ErrScheduleNotFound))
	}
	return s, nil
}

func transitionScheduleQuery(id uuid.UUID, t models.ScheduleTransition) squirrel.UpdateBuilder {
	from := make([]string, len(t.From))
	for i, f := range t.From {
		from[i] = string(f)
	}
	qb := psql.Update("schedules").Set("status", string(t.To))
	switch {
	case t.ClearClient:
		qb = qb.Set("client_id", nil)
	case t.ClientID != nil:
		qb = qb.Set("client_id", *t.ClientID)
	}
	return qb.Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + strings.Join(scheduleColumns, ", "))
}

// SetRoute attaches a driving route to the slot, or detaches it when routeID is nil
func (r *ScheduleRepository) SetRoute(ctx context.Context, id uuid.UUID, routeID *uuid.UUID) (*models.Schedule, error) {
	qb := psql.Update("schedules").
		Set("route_id", routeID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(scheduleColumns, ", "))
	return r.one(ctx, qb, "error updating schedule")
}

// Delete removes the slot
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("schedules").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrScheduleNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting schedule: %w", dberrors.Translate(err, nil))
	}
	return nil
}

func (r *ScheduleRepository) one(ctx context.Context, qb squirrel.Sqlizer, action string) (*models.Schedule, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s *models.Schedule
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		s, err = scanSchedule(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, dberrors.Translate(err, apperrors.ErrScheduleNotFound))
	}
	return s, nil
}

func scheduleTargets(s *models.Schedule, status *string, zone **string) []interface{} {
	return []interface{}{
		&s.ID, &s.InstructorID, &s.ClientID, &s.TeamLeaderID, &s.RouteID, zone,
		&s.SlotStart, &s.SlotEnd, status, &s.CreatedAt, &s.UpdatedAt,
	}
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var (
		s      models.Schedule
		status string
		zone   *string
	)
	if err := row.Scan(scheduleTargets(&s, &status, &zone)...); err != nil {
		return nil, err
	}
	s.Status = models.ScheduleStatus(status)
	s.Zone = zoneOf(zone)
	return &s, nil
}

func scanJoinedSchedule(row pgx.Row) (*models.Schedule, error) {
	var (
		s                  models.Schedule
		status             string
		zone               *string
		iName, iRole, iZon *string
		cName, cRole, cZon *string
	)
	targets := append(scheduleTargets(&s, &status, &zone), &iName, &iRole, &iZon, &cName, &cRole, &cZon)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	s.Status = models.ScheduleStatus(status)
	s.Zone = zoneOf(zone)
	s.Instructor = summaryOf(iName, iRole, iZon)
	s.Client = summaryOf(cName, cRole, cZon)
	return &s, nil
}

func zoneOf(raw *string) *models.Zone {
	if raw == nil || *raw == "" {
		return nil
	}
	z := models.NormalizeZone(*raw)
	return &z
}

// summaryOf builds a profile summary from left-joined columns; nil when the join missed
func summaryOf(fullName, role, zone *string) *models.ProfileSummary {
	if role == nil {
		return nil
	}
	p := &models.ProfileSummary{Role: models.Role(*role), Zone: zoneOf(zone)}
	if fullName != nil {
		p.FullName = *fullName
	}
	return p
}
