package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// AdminPromoter grants the admin role by email. *repositories.ProfileRepository satisfies it.
type AdminPromoter interface {
	PromoteToAdmin(ctx context.Context, email string) (*models.Profile, error)
}

// PromoteAdmins makes every listed account an approved admin so a fresh
// deployment has someone able to approve the rest. Accounts that have not
// signed up yet are skipped and picked up on the next start.
func PromoteAdmins(ctx context.Context, profiles AdminPromoter, emails []string, lgr zerolog.Logger) error {
	if len(emails) == 0 {
		return nil
	}

	lgr.Info().Int("count", len(emails)).Msg("Checking/Promoting bootstrap admins...")
	var finalErr error // To collect potential errors without stopping the process

	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		p, err := profiles.PromoteToAdmin(ctx, key)
		switch {
		case errors.Is(err, apperrors.ErrProfileNotFound):
			lgr.Warn().Str("email", key).Msg("Bootstrap admin has not signed up yet")
		case err != nil:
			lgr.Error().Err(err).Str("email", key).Msg("Error promoting bootstrap admin")
			finalErr = errors.Join(finalErr, err)
		default:
			lgr.Info().Str("email", key).Str("userID", p.ID.String()).Msg("Bootstrap admin promoted")
		}
	}
	return finalErr
}
