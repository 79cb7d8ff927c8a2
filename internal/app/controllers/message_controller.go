package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
	"github.com/athome/driveops/internal/pkg/apperrors"
)

// MessageController handles sending, reading and acknowledging messages
type MessageController struct {
	messageService services.MessageService
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService services.MessageService) *MessageController {
	return &MessageController{
		messageService: messageService,
	}
}

// SendDirect sends a one-to-one message
// @Summary Send a direct message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendDirectRequest true "Recipient and body"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Account not approved"
// @Router /messages/direct [post]
func (c *MessageController) SendDirect(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.SendDirectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.messageService.SendDirect(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// SendRole broadcasts to one role within a zone
// @Summary Broadcast to a role in a zone
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SendRoleRequest true "Role, zone and body"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Router /messages/role [post]
func (c *MessageController) SendRole(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.SendRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.messageService.SendRole(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// SendZone broadcasts to everyone in a zone
// @Summary Broadcast to a zone
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /messages/zone [post]
func (c *MessageController) SendZone(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.SendZoneRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.messageService.SendZone(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// SendAll broadcasts to every approved user
// @Summary Broadcast to everyone
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /messages/all [post]
func (c *MessageController) SendAll(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.SendAllRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.messageService.SendAll(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// UserThread returns the direct conversation with another user
// @Summary Get a direct thread
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Other participant"
// @Success 200 {object} dto.APIResponse{data=dto.ThreadResponse}
// @Router /threads/user/{userId} [get]
func (c *MessageController) UserThread(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	otherID, ok := uuidParam(ctx, "userId")
	if !ok {
		return
	}

	thread, err := c.messageService.UserThread(ctx.Request.Context(), userID, otherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(thread))
}

// RoleThread returns the broadcasts to a role in a zone
// @Summary Get a role broadcast thread
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Router /threads/role/{role}/{zone} [get]
func (c *MessageController) RoleThread(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	thread, err := c.messageService.RoleThread(ctx.Request.Context(), userID, ctx.Param("role"), ctx.Param("zone"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(thread))
}

// ZoneThread returns the broadcasts to a zone
// @Summary Get a zone broadcast thread
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Router /threads/zone/{zone} [get]
func (c *MessageController) ZoneThread(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	thread, err := c.messageService.ZoneThread(ctx.Request.Context(), userID, ctx.Param("zone"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(thread))
}

// AllThread returns the company-wide broadcasts
// @Summary Get the company-wide thread
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Router /threads/all [get]
func (c *MessageController) AllThread(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	thread, err := c.messageService.AllThread(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(thread))
}

// MarkRead records that the caller has read one message
// @Summary Mark a message as read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /messages/{id}/read [post]
func (c *MessageController) MarkRead(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	messageID, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.messageService.MarkRead(ctx.Request.Context(), userID, messageID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Message marked as read"}))
}

// MarkReadBatch marks several messages as read. When some fail the response is
// 207 and carries both the marked and the failed IDs.
// @Summary Mark several messages as read
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MarkReadBatchRequest true "Message IDs"
// @Success 200 {object} dto.APIResponse{data=dto.MarkReadBatchResponse}
// @Success 207 {object} dto.APIResponse{data=dto.MarkReadBatchResponse}
// @Router /messages/read [post]
func (c *MessageController) MarkReadBatch(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.MarkReadBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.messageService.MarkReadBatch(ctx.Request.Context(), userID, &req)
	var partial *apperrors.PartialFailure
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
	case resp != nil && errors.As(err, &partial):
		detail := dto.NewErrorDetail(dto.ErrorCodePartialFailure, "Some messages could not be marked as read").
			WithSeverity(dto.ErrorSeverityWarning).
			WithRetryable(apperrors.Retryable(err))
		ctx.JSON(http.StatusMultiStatus, dto.APIResponse{
			Success:   false,
			Data:      resp,
			Error:     detail,
			Timestamp: time.Now(),
		})
	default:
		middleware.HandleAPIError(ctx, err)
	}
}
