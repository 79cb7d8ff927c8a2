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

var assignmentColumns = []string{
	"id", "instructor_id", "team_leader_id", "client_id", "zone", "created_at", "updated_at",
}

// AssignmentRepository handles database operations for instructor and client assignments
type AssignmentRepository struct {
	db Runner
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db Runner) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns the visible assignments matching filter with joined profile summaries
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]*models.Assignment, error) {
	query, args, err := listAssignmentsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	assignments := []*models.Assignment{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				a                   models.Assignment
				zone                *string
				iName, iRole, iZone *string
				tName, tRole, tZone *string
				cName, cRole, cZone *string
			)
			targets := append(assignmentTargets(&a, &zone), &iName, &iRole, &iZone, &tName, &tRole, &tZone, &cName, &cRole, &cZone)
			if err := rows.Scan(targets...); err != nil {
				return err
			}
			a.Zone = zoneOf(zone)
			a.Instructor = summaryOf(iName, iRole, iZone)
			a.TeamLeader = summaryOf(tName, tRole, tZone)
			a.Client = summaryOf(cName, cRole, cZone)
			assignments = append(assignments, &a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", dberrors.Translate(err, nil))
	}
	return assignments, nil
}

func listAssignmentsQuery(filter models.AssignmentFilter) squirrel.SelectBuilder {
	cols := make([]string, 0, len(assignmentColumns)+9)
	for _, c := range assignmentColumns {
		cols = append(cols, "a."+c)
	}
	cols = append(cols,
		"i.full_name", "i.role", "i.zone",
		"t.full_name", "t.role", "t.zone",
		"c.full_name", "c.role", "c.zone")
	qb := psql.Select(cols...).
		From("assignments a").
		LeftJoin("profiles i ON i.id = a.instructor_id").
		LeftJoin("profiles t ON t.id = a.team_leader_id").
		LeftJoin("profiles c ON c.id = a.client_id")

	if filter.InstructorID != nil {
		qb = qb.Where(squirrel.Eq{"a.instructor_id": *filter.InstructorID})
	}
	if filter.TeamLeaderID != nil {
		qb = qb.Where(squirrel.Eq{"a.team_leader_id": *filter.TeamLeaderID})
	}
	if filter.ClientID != nil {
		qb = qb.Where(squirrel.Eq{"a.client_id": *filter.ClientID})
	}
	if filter.Zone != "" {
		qb = qb.Where(squirrel.Eq{"a.zone": string(models.NormalizeZone(string(filter.Zone)))})
	}
	switch filter.Kind {
	case models.AssignmentInstructor:
		qb = qb.Where(squirrel.Eq{"a.client_id": nil})
	case models.AssignmentClient:
		qb = qb.Where(squirrel.NotEq{"a.client_id": nil})
	}
	return qb.OrderBy("a.created_at DESC", "a.id ASC")
}

// AssignInstructor places instructorID under teamLeaderID, replacing any
// previous team leader. A nil teamLeaderID leaves the instructor unled.
func (r *AssignmentRepository) AssignInstructor(ctx context.Context, instructorID uuid.UUID, teamLeaderID *uuid.UUID, zone *models.Zone) (*models.Assignment, error) {
	query, args, err := assignInstructorQuery(instructorID, teamLeaderID, zone).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var a *models.Assignment
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		a, err = scanAssignment(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error assigning instructor: %w", dberrors.Translate(err, nil))
	}
	return a, nil
}

func assignInstructorQuery(instructorID uuid.UUID, teamLeaderID *uuid.UUID, zone *models.Zone) squirrel.InsertBuilder {
	return psql.Insert("assignments").
		Columns("instructor_id", "team_leader_id", "zone").
		Values(instructorID, teamLeaderID, zoneValue(zone)).
		Suffix(`ON CONFLICT (instructor_id) WHERE client_id IS NULL DO UPDATE SET
			team_leader_id = EXCLUDED.team_leader_id, zone = EXCLUDED.zone, updated_at = now()
		RETURNING ` + strings.Join(assignmentColumns, ", "))
}

// AssignClient places clientID with instructorID. The client inherits the
// instructor's team leader, and when zone is set the client's profile zone
// moves with the assignment in the same transaction.
func (r *AssignmentRepository) AssignClient(ctx context.Context, clientID, instructorID uuid.UUID, zone *models.Zone) (*models.Assignment, error) {
	query, args, err := assignClientQuery(clientID, instructorID, zone).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	var moveQuery string
	var moveArgs []interface{}
	if z := zoneValue(zone); z != nil {
		moveQuery, moveArgs, err = psql.Update("profiles").
			Set("zone", *z).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": clientID}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("error building SQL: %w", err)
		}
	}

	var a *models.Assignment
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if moveQuery != "" {
			tag, err := tx.Exec(ctx, moveQuery, moveArgs...)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return apperrors.ErrProfileNotFound
			}
		}
		var err error
		a, err = scanAssignment(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error assigning client: %w", dberrors.Translate(err, nil))
	}
	return a, nil
}

func assignClientQuery(clientID, instructorID uuid.UUID, zone *models.Zone) squirrel.InsertBuilder {
	lead := squirrel.Expr("(SELECT team_leader_id FROM assignments WHERE instructor_id = ? AND client_id IS NULL)", instructorID)
	return psql.Insert("assignments").
		Columns("instructor_id", "client_id", "zone", "team_leader_id").
		Values(instructorID, clientID, zoneValue(zone), lead).
		Suffix(`ON CONFLICT (client_id) WHERE client_id IS NOT NULL DO UPDATE SET
			instructor_id = EXCLUDED.instructor_id, team_leader_id = EXCLUDED.team_leader_id,
			zone = EXCLUDED.zone, updated_at = now()
		RETURNING ` + strings.Join(assignmentColumns, ", "))
}

// UnassignClient removes the client's assignment
func (r *AssignmentRepository) UnassignClient(ctx context.Context, clientID uuid.UUID) error {
	return r.delete(ctx, squirrel.Eq{"client_id": clientID})
}

// UnassignInstructor removes the instructor's team leader assignment. Client
// assignments of the instructor are kept.
func (r *AssignmentRepository) UnassignInstructor(ctx context.Context, instructorID uuid.UUID) error {
	return r.delete(ctx, squirrel.Eq{"instructor_id": instructorID, "client_id": nil})
}

func (r *AssignmentRepository) delete(ctx context.Context, where squirrel.Eq) error {
	query, args, err := psql.Delete("assignments").Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrAssignmentNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error removing assignment: %w", dberrors.Translate(err, nil))
	}
	return nil
}

func assignmentTargets(a *models.Assignment, zone **string) []interface{} {
	return []interface{}{&a.ID, &a.InstructorID, &a.TeamLeaderID, &a.ClientID, zone, &a.CreatedAt, &a.UpdatedAt}
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var (
		a    models.Assignment
		zone *string
	)
	if err := row.Scan(assignmentTargets(&a, &zone)...); err != nil {
		return nil, err
	}
	a.Zone = zoneOf(zone)
	return &a, nil
}
