// Package controllers exposes the services over HTTP. Handlers pass the request
// context to services so the caller's identity reaches the database session.
package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/athome/driveops/internal/middleware"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// currentUser returns the authenticated caller or writes a 401
func currentUser(ctx *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses a path parameter or writes a 400
func uuidParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError(name, "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// bindError writes a binding failure. Field errors keep their detail; anything
// else (malformed JSON, wrong types) is a plain bad request.
func bindError(ctx *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		middleware.HandleAPIError(ctx, err)
		return
	}
	middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
}
