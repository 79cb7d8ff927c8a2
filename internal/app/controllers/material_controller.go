package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/athome/driveops/internal/app/models/dto"
	"github.com/athome/driveops/internal/app/services"
	"github.com/athome/driveops/internal/middleware"
)

// MaterialController handles learning materials
type MaterialController struct {
	materialService services.MaterialService
}

// NewMaterialController creates a new MaterialController
func NewMaterialController(materialService services.MaterialService) *MaterialController {
	return &MaterialController{
		materialService: materialService,
	}
}

// ListMaterials returns the reviewed materials meant for the caller
// @Summary List learning materials
// @Tags materials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.MaterialResponse}
// @Router /materials [get]
func (c *MaterialController) ListMaterials(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	resp, err := c.materialService.Visible(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListPending returns the review queue
// @Summary List materials awaiting review
// @Tags materials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.MaterialResponse}
// @Router /materials/pending [get]
func (c *MaterialController) ListPending(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	resp, err := c.materialService.Pending(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// CreateMaterial submits a material for review
// @Summary Add a learning material
// @Tags materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateMaterialRequest true "Material"
// @Success 201 {object} dto.APIResponse{data=dto.MaterialResponse}
// @Router /materials [post]
func (c *MaterialController) CreateMaterial(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.CreateMaterialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.materialService.Create(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// UpdateMaterial edits a material's metadata
// @Summary Update a learning material
// @Tags materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Param request body dto.UpdateMaterialRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.MaterialResponse}
// @Router /materials/{id} [patch]
func (c *MaterialController) UpdateMaterial(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateMaterialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.materialService.Update(ctx.Request.Context(), userID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ReviewMaterial publishes or withdraws a material
// @Summary Review a learning material
// @Tags materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Param request body dto.ReviewMaterialRequest true "Review outcome"
// @Success 200 {object} dto.APIResponse{data=dto.MaterialResponse}
// @Router /materials/{id}/review [post]
func (c *MaterialController) ReviewMaterial(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReviewMaterialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	resp, err := c.materialService.SetReviewed(ctx.Request.Context(), userID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// DeleteMaterial removes a material
// @Summary Delete a learning material
// @Tags materials
// @Security BearerAuth
// @Param id path string true "Material ID"
// @Success 204
// @Router /materials/{id} [delete]
func (c *MaterialController) DeleteMaterial(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.materialService.Delete(ctx.Request.Context(), userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
