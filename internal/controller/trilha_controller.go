package controller

import (
	"strconv"

	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/service"
	"trilha_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TrilhaController struct {
	TrilhaService   *service.TrilhaService
	ProgressService *service.ProgressService
}

func NewTrilhaController(trilhaService *service.TrilhaService, progressService *service.ProgressService) *TrilhaController {
	return &TrilhaController{
		TrilhaService:   trilhaService,
		ProgressService: progressService,
	}
}

// Create godoc
// @Summary Create a learning path
// @Tags trilhas
// @Accept json
// @Produce json
// @Param body body service.TrilhaRequest true "trilha payload"
// @Success 201 {object} util.Response{data=model.Trilha}
// @Failure 400 {object} util.Response
// @Router /api/trilhas [post]
func (c *TrilhaController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.TrilhaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	creatorID := claims.UserID
	trilha, err := c.TrilhaService.CreateTrilha(&creatorID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, trilha)
}

// Get godoc
// @Summary Get a learning path with its conteudos
// @Tags trilhas
// @Produce json
// @Param id path int true "trilha id"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/trilhas/{id} [get]
func (c *TrilhaController) Get(ctx *gin.Context) {
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	trilha, conteudos, err := c.TrilhaService.GetTrilha(trilhaID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"trilha": trilha, "conteudos": conteudos})
}

// Update godoc
// @Summary Update a learning path
// @Tags trilhas
// @Accept json
// @Produce json
// @Param id path int true "trilha id"
// @Param body body service.TrilhaRequest true "fields to change"
// @Success 200 {object} util.Response{data=model.Trilha}
// @Failure 404 {object} util.Response
// @Router /api/trilhas/{id} [put]
func (c *TrilhaController) Update(ctx *gin.Context) {
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.TrilhaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	trilha, err := c.TrilhaService.UpdateTrilha(trilhaID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, trilha)
}

// Delete godoc
// @Summary Delete a learning path and its conteudos
// @Tags trilhas
// @Produce json
// @Param id path int true "trilha id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/trilhas/{id} [delete]
func (c *TrilhaController) Delete(ctx *gin.Context) {
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.TrilhaService.DeleteTrilha(trilhaID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// List godoc
// @Summary List learning paths
// @Tags trilhas
// @Produce json
// @Param difficulty query string false "beginner|intermediate|advanced"
// @Param category query string false "category filter"
// @Param page query int false "page, default 1"
// @Param limit query int false "page size, default 20"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/trilhas [get]
func (c *TrilhaController) List(ctx *gin.Context) {
	difficulty := model.Difficulty(ctx.Query("difficulty"))
	category := ctx.Query("category")
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	trilhas, total, err := c.TrilhaService.ListTrilhas(difficulty, category, page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: trilhas, Total: total, Page: page, Limit: limit})
}

// Search godoc
// @Summary Search learning paths by title or description
// @Tags trilhas
// @Produce json
// @Param q query string true "search term, min 2 chars"
// @Param limit query int false "max results, default 20"
// @Success 200 {object} util.Response{data=[]model.Trilha}
// @Router /api/trilhas/search [get]
func (c *TrilhaController) Search(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	trilhas, err := c.TrilhaService.SearchTrilhas(ctx.Query("q"), limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, trilhas)
}

// Popular godoc
// @Summary List learning paths ranked by enrollments
// @Tags trilhas
// @Produce json
// @Param limit query int false "max results, default 10"
// @Success 200 {object} util.Response{data=[]repository.PopularTrilha}
// @Router /api/trilhas/popular [get]
func (c *TrilhaController) Popular(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	popular, err := c.TrilhaService.GetPopular(limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, popular)
}

// Statistics godoc
// @Summary Aggregate learner statistics for a learning path
// @Tags trilhas
// @Produce json
// @Param id path int true "trilha id"
// @Success 200 {object} util.Response{data=service.TrilhaStatistics}
// @Failure 404 {object} util.Response
// @Router /api/trilhas/{id}/statistics [get]
func (c *TrilhaController) Statistics(ctx *gin.Context) {
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	stats, err := c.TrilhaService.GetStatistics(trilhaID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Enroll godoc
// @Summary Enroll the caller in a learning path
// @Tags trilhas
// @Produce json
// @Param id path int true "trilha id"
// @Success 201 {object} util.Response{data=model.UserTrilha}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/trilhas/{id}/enroll [post]
func (c *TrilhaController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	enrollment, err := c.TrilhaService.Enroll(claims.UserID, trilhaID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// Progress godoc
// @Summary Get the caller's progress in a learning path
// @Tags trilhas
// @Produce json
// @Param id path int true "trilha id"
// @Success 200 {object} util.Response{data=service.TrilhaProgressSummary}
// @Failure 404 {object} util.Response
// @Router /api/trilhas/{id}/progress [get]
func (c *TrilhaController) Progress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	summary, err := c.ProgressService.GetTrilhaProgress(claims.UserID, trilhaID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
