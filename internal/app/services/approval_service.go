package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appauth "github.com/athome/driveops/internal/app/auth"
	"github.com/athome/driveops/internal/app/models"
	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/metrics"
	"github.com/athome/driveops/internal/pkg/poller"
)

// Approval outcomes
const (
	OutcomeApproved  = "approved"
	OutcomeDeclined  = "declined"
	OutcomeSuspended = "suspended"
	OutcomePending   = "pending"
	OutcomeMissing   = "missing"
	OutcomeExhausted = "exhausted"
)

// ApprovalService reports, or waits for, the approval of the caller's account
type ApprovalService interface {
	Check(ctx context.Context, userID uuid.UUID) (*dto.ApprovalResponse, error)
	Wait(ctx context.Context, userID uuid.UUID) (*dto.ApprovalResponse, error)
}

// approvalServiceImpl implements ApprovalService
type approvalServiceImpl struct {
	profiles appauth.ProfileLookup
	cfg      poller.Config
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(profiles appauth.ProfileLookup, cfg poller.Config, m *metrics.Metrics, logger zerolog.Logger) ApprovalService {
	return &approvalServiceImpl{
		profiles: profiles,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// Check looks at the profile once
func (s *approvalServiceImpl) Check(ctx context.Context, userID uuid.UUID) (*dto.ApprovalResponse, error) {
	cfg := s.cfg
	cfg.MaxAttempts = 1

	st, err := s.run(ctx, userID, cfg)
	if err == nil {
		return st.resp, nil
	}
	if !errors.Is(err, poller.ErrExhausted) {
		return nil, err
	}
	switch {
	case st.lastErr == nil:
		st.resp.Outcome = OutcomePending
	case errors.Is(st.lastErr, apperrors.ErrProfileNotFound):
		st.resp.Outcome = OutcomeMissing
		st.resp.Route = models.PostLoginRoute(nil)
	default:
		return nil, st.lastErr
	}
	return st.resp, nil
}

// Wait polls the profile with backoff until it leaves the pending state, the
// attempt budget runs out or ctx is cancelled. Missing rows and fetch errors are retried.
func (s *approvalServiceImpl) Wait(ctx context.Context, userID uuid.UUID) (*dto.ApprovalResponse, error) {
	s.logger.Debug().Str("userID", userID.String()).Msg("Waiting for account approval")

	st, err := s.run(ctx, userID, s.cfg)
	if err != nil {
		if !errors.Is(err, poller.ErrExhausted) {
			s.logger.Debug().Err(err).Str("userID", userID.String()).Msg("Approval wait stopped")
			return nil, err
		}
		st.resp.Outcome = OutcomeExhausted
		if errors.Is(st.lastErr, apperrors.ErrProfileNotFound) {
			st.resp.Route = models.PostLoginRoute(nil)
		}
	}
	resp := st.resp

	s.metrics.ApprovalWait(resp.Outcome)
	s.logger.Info().
		Str("userID", userID.String()).
		Str("outcome", resp.Outcome).
		Int("attempts", resp.Attempts).
		Msg("Approval wait finished")
	return resp, nil
}

// approvalState is what the last attempt of a run saw
type approvalState struct {
	resp    *dto.ApprovalResponse
	lastErr error
}

func (s *approvalServiceImpl) run(ctx context.Context, userID uuid.UUID, cfg poller.Config) (*approvalState, error) {
	st := &approvalState{resp: &dto.ApprovalResponse{}}
	resp := st.resp

	err := poller.New(cfg).Run(ctx, func(ctx context.Context, attempt int) (bool, error) {
		resp.Attempts = attempt
		p, err := s.profiles.GetByID(ctx, userID)
		if err != nil {
			st.lastErr = err
			if errors.Is(err, apperrors.ErrAuthorization) {
				return false, poller.Permanent(err)
			}
			s.logger.Debug().Err(err).Int("attempt", attempt).Msg("Profile not available yet")
			return false, err
		}
		st.lastErr = nil

		resp.Status = string(p.Status)
		resp.Route = models.PostLoginRoute(p)
		switch p.Status {
		case models.StatusApproved:
			resp.Outcome = OutcomeApproved
		case models.StatusDeclined:
			resp.Outcome = OutcomeDeclined
		case models.StatusSuspended:
			resp.Outcome = OutcomeSuspended
		default:
			resp.Outcome = OutcomePending
			return false, nil
		}
		return true, nil
	})
	return st, err
}
