package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/pkg/apperrors"
	"github.com/athome/driveops/internal/pkg/logger"
)

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	var (
		partial   *apperrors.PartialFailure
		invalid   *apperrors.ValidationError
		custom    *apperrors.CustomError
		fieldErrs validator.ValidationErrors
	)

	switch {
	case errors.As(err, &partial):
		detail := dto.NewErrorDetail(dto.ErrorCodePartialFailure, "Some items could not be processed").
			WithDetails(partial.Failed).
			WithSeverity(dto.ErrorSeverityWarning).
			WithRetryable(apperrors.Retryable(err))
		c.JSON(http.StatusMultiStatus, dto.NewErrorResponse(detail))
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(HandleValidationError(fieldErrs)))
	case errors.As(err, &invalid):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, invalid.Error()).WithField(invalid.Field)
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, err.Error())))
	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")))
	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")))
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
	case errors.Is(err, apperrors.ErrAccountPending):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeAccountPending, "Account is pending approval")))
	case errors.Is(err, apperrors.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is suspended")))
	case errors.Is(err, apperrors.ErrAuthorization):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")))
	case apperrors.Is(err, apperrors.ErrResourceNotFound, apperrors.ErrProfileNotFound, apperrors.ErrMessageNotFound,
		apperrors.ErrScheduleNotFound, apperrors.ErrAssignmentNotFound, apperrors.ErrRouteNotFound, apperrors.ErrMaterialNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error())))
	case errors.Is(err, apperrors.ErrConflict) && errors.As(err, &custom):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeStateConflict, custom.Message)))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists")))
	case errors.Is(err, apperrors.ErrTransient):
		detail := dto.NewErrorDetail(dto.ErrorCodeUnavailable, "Service temporarily unavailable").WithRetryable(true)
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(detail))
	default:
		logger.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Unhandled API error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
