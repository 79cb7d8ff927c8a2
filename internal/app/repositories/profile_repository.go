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

var profileColumns = []string{
	"id", "email", "full_name", "phone", "avatar_url", "role", "zone", "status", "created_at", "updated_at",
}

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db Runner
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db Runner) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by user id
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query, args, err := psql.Select(profileColumns...).From("profiles").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args)
}

// Update applies the non-nil fields of u to the profile of id
func (r *ProfileRepository) Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	if u.Empty() {
		return r.GetByID(ctx, id)
	}
	query, args, err := updateProfileQuery(id, u).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args)
}

func updateProfileQuery(id uuid.UUID, u models.ProfileUpdate) squirrel.UpdateBuilder {
	qb := psql.Update("profiles")
	if u.FullName != nil {
		qb = qb.Set("full_name", *u.FullName)
	}
	if u.Phone != nil {
		qb = qb.Set("phone", *u.Phone)
	}
	if u.AvatarURL != nil {
		qb = qb.Set("avatar_url", *u.AvatarURL)
	}
	return qb.Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(profileColumns, ", "))
}

// SetStatus changes the approval status of a profile
func (r *ProfileRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Profile, error) {
	query, args, err := psql.Update("profiles").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(profileColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args)
}

// PromoteToAdmin makes the profile registered under email an approved admin.
// Emails match case-insensitively.
func (r *ProfileRepository) PromoteToAdmin(ctx context.Context, email string) (*models.Profile, error) {
	query, args, err := promoteAdminQuery(email).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args)
}

func promoteAdminQuery(email string) squirrel.UpdateBuilder {
	return psql.Update("profiles").
		Set("role", string(models.RoleAdmin)).
		Set("status", string(models.StatusApproved)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Expr("lower(email) = lower(?)", strings.TrimSpace(email))).
		Suffix("RETURNING " + strings.Join(profileColumns, ", "))
}

// List returns the profiles matching filter ordered by name
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]*models.Profile, error) {
	return r.many(ctx, listProfilesQuery(filter))
}

func listProfilesQuery(filter models.ProfileFilter) squirrel.SelectBuilder {
	qb := psql.Select(profileColumns...).From("profiles")
	if filter.Role != "" {
		qb = qb.Where(squirrel.Eq{"role": string(filter.Role)})
	}
	if filter.Zone != "" {
		// rows written by sign-up keep whatever casing the user typed
		qb = qb.Where(squirrel.Expr("lower(btrim(zone)) = ?", string(models.NormalizeZone(string(filter.Zone)))))
	}
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	return qb.OrderBy("full_name ASC", "id ASC")
}

// Search matches q against name and email, case-insensitively
func (r *ProfileRepository) Search(ctx context.Context, q string, limit uint64) ([]*models.Profile, error) {
	return r.many(ctx, searchProfilesQuery(q, limit))
}

func searchProfilesQuery(q string, limit uint64) squirrel.SelectBuilder {
	pattern := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	return psql.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Or{
			squirrel.ILike{"full_name": pattern},
			squirrel.ILike{"email": pattern},
		}).
		OrderBy("full_name ASC").
		Limit(limit)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ProfileRepository) one(ctx context.Context, query string, args []interface{}) (*models.Profile, error) {
	var p *models.Profile
	err := r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		p, err = scanProfile(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, dberrors.Translate(err, apperrors.ErrProfileNotFound)
	}
	return p, nil
}

func (r *ProfileRepository) many(ctx context.Context, qb squirrel.SelectBuilder) ([]*models.Profile, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	profiles := []*models.Profile{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing profiles: %w", dberrors.Translate(err, nil))
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p        models.Profile
		fullName *string
		role     string
		zone     *string
		status   string
	)
	err := row.Scan(&p.ID, &p.Email, &fullName, &p.Phone, &p.AvatarURL, &role, &zone, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if fullName != nil {
		p.FullName = *fullName
	}
	p.Role = models.Role(role)
	if zone != nil && *zone != "" {
		z := models.NormalizeZone(*zone)
		p.Zone = &z
	}
	p.Status = models.Status(status)
	return &p, nil
}
