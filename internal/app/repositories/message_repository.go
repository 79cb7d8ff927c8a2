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

var messageColumns = []string{
	"id", "sender_id", "scope", "to_user_id", "to_role", "to_zone",
	"thread_id", "body", "created_at", "read_by",
}

// MessageRepository handles database operations for messages
type MessageRepository struct {
	db Runner
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db Runner) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert stores m and fills in the generated id, timestamp and read_by
func (r *MessageRepository) Insert(ctx context.Context, m *models.Message) error {
	query, args, err := insertMessageQuery(m).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var readBy []string
		if err := tx.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt, &readBy); err != nil {
			return err
		}
		ids, err := parseReaders(readBy)
		if err != nil {
			return err
		}
		m.ReadBy = ids
		return nil
	})
	if err != nil {
		return fmt.Errorf("error inserting message: %w", dberrors.Translate(err, nil))
	}
	return nil
}

func insertMessageQuery(m *models.Message) squirrel.InsertBuilder {
	return psql.Insert("messages").
		Columns("sender_id", "scope", "to_user_id", "to_role", "to_zone", "thread_id", "body").
		Values(m.SenderID, string(m.Scope), m.ToUserID, nullableString(m.ToRole), nullableString(m.ToZone), m.ThreadID, m.Body).
		Suffix("RETURNING id, created_at, read_by")
}

// GetByID retrieves a message by its ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query, args, err := psql.Select(messageColumns...).From("messages").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var m *models.Message
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		m, err = scanMessage(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return nil, dberrors.Translate(err, apperrors.ErrMessageNotFound)
	}
	return m, nil
}

// UserThread returns the direct messages of one thread, oldest first
func (r *MessageRepository) UserThread(ctx context.Context, threadKey string) ([]*models.Message, error) {
	return r.list(ctx, threadQuery(squirrel.Eq{"scope": string(models.ScopeUser), "thread_id": threadKey}))
}

// RoleThread returns the broadcasts to role within zone, oldest first
func (r *MessageRepository) RoleThread(ctx context.Context, role models.Role, zone models.Zone) ([]*models.Message, error) {
	return r.list(ctx, threadQuery(squirrel.Eq{"scope": string(models.ScopeRole), "to_role": string(role), "to_zone": string(zone)}))
}

// ZoneThread returns the broadcasts to zone, oldest first
func (r *MessageRepository) ZoneThread(ctx context.Context, zone models.Zone) ([]*models.Message, error) {
	return r.list(ctx, threadQuery(squirrel.Eq{"scope": string(models.ScopeZone), "to_zone": string(zone)}))
}

// AllThread returns the global broadcasts, oldest first
func (r *MessageRepository) AllThread(ctx context.Context) ([]*models.Message, error) {
	return r.list(ctx, threadQuery(squirrel.Eq{"scope": string(models.ScopeAll)}))
}

func threadQuery(where squirrel.Eq) squirrel.SelectBuilder {
	return psql.Select(messageColumns...).
		From("messages").
		Where(where).
		OrderBy("created_at ASC", "id ASC")
}

func (r *MessageRepository) list(ctx context.Context, qb squirrel.SelectBuilder) ([]*models.Message, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	messages := []*models.Message{}
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", dberrors.Translate(err, nil))
	}
	return messages, nil
}

// ReadBy returns the current read_by set of a message
func (r *MessageRepository) ReadBy(ctx context.Context, messageID uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := psql.Select("read_by").From("messages").Where(squirrel.Eq{"id": messageID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var readers []uuid.UUID
	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var raw []string
		if err := tx.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
			return err
		}
		var err error
		readers, err = parseReaders(raw)
		return err
	})
	if err != nil {
		return nil, dberrors.Translate(err, apperrors.ErrMessageNotFound)
	}
	return readers, nil
}

// AddReader appends viewerID to read_by unless already present. The condition is
// evaluated in the same statement, so concurrent marks cannot drop each other.
func (r *MessageRepository) AddReader(ctx context.Context, messageID, viewerID uuid.UUID) error {
	query, args, err := addReaderQuery(messageID, viewerID).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.WithIdentity(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("error marking message read: %w", dberrors.Translate(err, apperrors.ErrMessageNotFound))
	}
	return nil
}

func addReaderQuery(messageID, viewerID uuid.UUID) squirrel.UpdateBuilder {
	return psql.Update("messages").
		Set("read_by", squirrel.Expr("array_append(read_by, ?::uuid)", viewerID)).
		Where(squirrel.Eq{"id": messageID}).
		Where(squirrel.Expr("NOT (?::uuid = ANY(read_by))", viewerID))
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var (
		m        models.Message
		scope    string
		toUser   uuid.NullUUID
		toRole   *string
		toZone   *string
		threadID *string
		readBy   []string
	)

	if err := row.Scan(&m.ID, &m.SenderID, &scope, &toUser, &toRole, &toZone, &threadID, &m.Body, &m.CreatedAt, &readBy); err != nil {
		return nil, err
	}

	m.Scope = models.Scope(scope)
	if toUser.Valid {
		id := toUser.UUID
		m.ToUserID = &id
	}
	if toRole != nil {
		role := models.Role(*toRole)
		m.ToRole = &role
	}
	if toZone != nil {
		zone := models.Zone(*toZone)
		m.ToZone = &zone
	}
	m.ThreadID = threadID

	ids, err := parseReaders(readBy)
	if err != nil {
		return nil, err
	}
	m.ReadBy = ids
	return &m, nil
}

func parseReaders(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid reader id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nullableString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// zoneValue stores zones in normalized form so equality filters match
func zoneValue(z *models.Zone) *string {
	if z == nil {
		return nil
	}
	n := models.NormalizeZone(string(*z))
	if n == "" {
		return nil
	}
	v := string(n)
	return &v
}
