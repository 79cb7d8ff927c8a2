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

var materialColumns = []string{
	"id", "title", "type", "storage_path", "role_scope", "zone", "reviewed_by_admin", "created_by", "created_at", "updated_at",
}

// MaterialRepository handles database operations for learning materials
type MaterialRepository struct {
	db Runner
}

// NewMaterialRepository creates a new MaterialRepository
func NewMaterialRepository(db Runner) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns the materials matching filter, newest first
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]*models.Material, error) {
	query, args, err := listMaterialsQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	materials := []*models.Material{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			m, err := scanMaterial(rows)
			if err != nil {
				return err
			}
			materials = append(materials, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing materials: %w", dberrors.Translate(err, nil))
	}
	return materials, nil
}

func listMaterialsQuery(filter models.MaterialFilter) squirrel.SelectBuilder {
	qb := psql.Select(materialColumns...).From("materials")
	if filter.Zone != "" {
		qb = qb.Where(squirrel.Or{
			squirrel.Eq{"zone": nil},
			squirrel.Eq{"zone": string(models.NormalizeZone(string(filter.Zone)))},
		})
	}
	if filter.Role != "" {
		qb = qb.Where(squirrel.Expr("(cardinality(role_scope) = 0 OR ? = ANY(role_scope))", string(filter.Role)))
	}
	if filter.Reviewed != nil {
		qb = qb.Where(squirrel.Eq{"reviewed_by_admin": *filter.Reviewed})
	}
	return qb.OrderBy("created_at DESC", "id ASC")
}

// Create stores a new, unreviewed material
func (r *MaterialRepository) Create(ctx context.Context, m *models.Material) (*models.Material, error) {
	query, args, err := insertMaterialQuery(m).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args, "error creating material")
}

func insertMaterialQuery(m *models.Material) squirrel.InsertBuilder {
	return psql.Insert("materials").
		Columns("title", "type", "storage_path", "role_scope", "zone", "reviewed_by_admin", "created_by").
		Values(m.Title, string(m.Type), m.StoragePath, roleStrings(m.RoleScope), zoneValue(m.Zone), false, m.CreatedBy).
		Suffix("RETURNING " + strings.Join(materialColumns, ", "))
}

// GetByID retrieves a material by id
func (r *MaterialRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	query, args, err := psql.Select(materialColumns...).From("materials").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args, "error getting material")
}

// Update applies u to the material of id
func (r *MaterialRepository) Update(ctx context.Context, id uuid.UUID, u models.MaterialUpdate) (*models.Material, error) {
	if u.Empty() {
		return r.GetByID(ctx, id)
	}
	query, args, err := updateMaterialQuery(id, u).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args, "error updating material")
}

func updateMaterialQuery(id uuid.UUID, u models.MaterialUpdate) squirrel.UpdateBuilder {
	qb := psql.Update("materials")
	if u.Title != nil {
		qb = qb.Set("title", *u.Title)
	}
	if u.RoleScope != nil {
		qb = qb.Set("role_scope", roleStrings(u.RoleScope))
	}
	switch {
	case u.ClearZone:
		qb = qb.Set("zone", nil)
	case u.Zone != nil:
		qb = qb.Set("zone", zoneValue(u.Zone))
	}
	return qb.Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(materialColumns, ", "))
}

// SetReviewed marks the material as reviewed or sends it back to the queue
func (r *MaterialRepository) SetReviewed(ctx context.Context, id uuid.UUID, reviewed bool) (*models.Material, error) {
	query, args, err := psql.Update("materials").
		Set("reviewed_by_admin", reviewed).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(materialColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	return r.one(ctx, query, args, "error reviewing material")
}

// Delete removes the material
func (r *MaterialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("materials").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrMaterialNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting material: %w", dberrors.Translate(err, nil))
	}
	return nil
}

func (r *MaterialRepository) one(ctx context.Context, query string, args []interface{}, action string) (*models.Material, error) {
	var m *models.Material
	err := r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		m, err = scanMaterial(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, dberrors.Translate(err, apperrors.ErrMaterialNotFound))
	}
	return m, nil
}

func scanMaterial(row pgx.Row) (*models.Material, error) {
	var (
		m     models.Material
		typ   string
		scope []string
		zone  *string
	)
	err := row.Scan(&m.ID, &m.Title, &typ, &m.StoragePath, &scope, &zone, &m.Reviewed, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = models.MaterialType(typ)
	m.RoleScope = make([]models.Role, len(scope))
	for i, r := range scope {
		m.RoleScope[i] = models.Role(r)
	}
	m.Zone = zoneOf(zone)
	return &m, nil
}

func roleStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
