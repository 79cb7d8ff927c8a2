package dberrors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/athome/driveops/internal/pkg/apperrors"
)

// PostgreSQL error codes the service reacts to
const (
	CodeUniqueViolation       = "23505"
	CodeInsufficientPrivilege = "42501"
	CodeCheckViolation        = "23514"
	CodeForeignKeyViolation   = "23503"
	CodeInvalidTextRep        = "22P02"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsRLSViolation reports whether the store's row-level-security policy refused the statement
func IsRLSViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeInsufficientPrivilege
}

// Translate maps a driver error onto the application error taxonomy. notFound is
// returned for pgx.ErrNoRows so callers can pick a domain-specific sentinel.
// The original error is kept in the chain.
func Translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound == nil {
		notFound = apperrors.ErrResourceNotFound
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeInsufficientPrivilege:
			return fmt.Errorf("%w: %s", apperrors.ErrAuthorization, pgErr.Message)
		case CodeUniqueViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.ConstraintName)
		case CodeCheckViolation, CodeInvalidTextRep, CodeForeignKeyViolation:
			return &apperrors.ValidationError{Field: pgErr.ColumnName, Reason: pgErr.Message}
		}
		return err
	}

	if isTransient(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrTransient, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
