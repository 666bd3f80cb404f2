package controller

import (
	"strconv"

	"trilha_edu_backend/internal/service"
	"trilha_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	RecommendationService *service.RecommendationService
	AuthService           *service.AuthService
}

func NewRecommendationController(recommendationService *service.RecommendationService, authService *service.AuthService) *RecommendationController {
	return &RecommendationController{
		RecommendationService: recommendationService,
		AuthService:           authService,
	}
}

// Recommend godoc
// @Summary Rank not-yet-enrolled learning paths for the caller
// @Tags recommendations
// @Produce json
// @Param limit query int false "max results, default 5"
// @Param justify query bool false "include an AI-written justification"
// @Success 200 {object} util.Response{data=object}
// @Router /api/recommendations [get]
func (c *RecommendationController) Recommend(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "5"))
	if limit < 1 || limit > 20 {
		limit = 5
	}

	ranked, err := c.RecommendationService.Recommend(ctx.Request.Context(), claims.UserID, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	payload := gin.H{"recommendations": ranked}

	// the narrative never alters the ranking; failures degrade to the
	// bare list
	if ctx.Query("justify") == "true" {
		if user := c.AuthService.GetCurrentUser(ctx); user != nil {
			if text, err := c.RecommendationService.Justify(ctx.Request.Context(), user, ranked); err == nil {
				payload["justification"] = text
			}
		}
	}

	util.Success(ctx, payload)
}
