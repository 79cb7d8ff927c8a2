package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

type promoter struct {
	known  map[string]bool
	broken string
	calls  []string
}

func (p *promoter) PromoteToAdmin(_ context.Context, email string) (*models.Profile, error) {
	p.calls = append(p.calls, email)
	if email == p.broken {
		return nil, errors.New("connection reset")
	}
	if !p.known[email] {
		return nil, apperrors.ErrProfileNotFound
	}
	return &models.Profile{ID: uuid.New(), Email: email, Role: models.RoleAdmin, Status: models.StatusApproved}, nil
}

func TestPromoteAdmins(t *testing.T) {
	p := &promoter{known: map[string]bool{"boss@example.com": true}}

	err := PromoteAdmins(context.Background(), p, []string{" Boss@Example.com", "boss@example.com", "", "new@example.com"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"boss@example.com", "new@example.com"}, p.calls)
}

func TestPromoteAdminsCollectsErrors(t *testing.T) {
	p := &promoter{known: map[string]bool{"ok@example.com": true}, broken: "down@example.com"}

	err := PromoteAdmins(context.Background(), p, []string{"down@example.com", "ok@example.com"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Len(t, p.calls, 2)

	assert.NoError(t, PromoteAdmins(context.Background(), p, nil, zerolog.Nop()))
}
