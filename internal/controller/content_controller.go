package controller

import (
	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/internal/service"
	"trilha_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	TrilhaService  *service.TrilhaService
	StorageService *service.StorageService
	AIService      *service.AIService
}

func NewContentController(trilhaService *service.TrilhaService, storageService *service.StorageService, aiService *service.AIService) *ContentController {
	return &ContentController{
		TrilhaService:  trilhaService,
		StorageService: storageService,
		AIService:      aiService,
	}
}

// AddConteudo godoc
// @Summary Add a conteudo to a learning path
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "trilha id"
// @Param body body service.ConteudoRequest true "conteudo payload"
// @Success 201 {object} util.Response{data=model.Conteudo}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/trilhas/{id}/conteudos [post]
func (c *ContentController) AddConteudo(ctx *gin.Context) {
	trilhaID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.ConteudoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	conteudo, err := c.TrilhaService.AddConteudo(trilhaID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, conteudo)
}

// AddQuestions godoc
// @Summary Attach quiz questions to a conteudo
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "conteudo id"
// @Param body body []service.QuestionRequest true "questions"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/conteudos/{id}/questions [post]
func (c *ContentController) AddQuestions(ctx *gin.Context) {
	conteudoID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var reqs []service.QuestionRequest
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(reqs) == 0 {
		util.BadRequest(ctx, "at least one question is required")
		return
	}

	questions, err := c.TrilhaService.AddQuestions(conteudoID, reqs)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"count": len(questions)})
}

// UploadMaterial godoc
// @Summary Upload course material
// @Description Stores the file and, for videos, probes the playback duration
// @Tags content
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "material file"
// @Success 201 {object} util.Response{data=service.UploadedMaterial}
// @Failure 400 {object} util.Response
// @Router /api/content/upload [post]
func (c *ContentController) UploadMaterial(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	material, err := c.StorageService.UploadMaterial(ctx.Request.Context(), fileHeader.Filename, file, fileHeader.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, material)
}

type GenerateQuestionsRequest struct {
	Topic      string           `json:"topic" binding:"required"`
	Difficulty model.Difficulty `json:"difficulty"`
	Count      int              `json:"count"`
}

// GenerateQuestions godoc
// @Summary Generate quiz questions for a conteudo with AI
// @Description Generated questions are persisted on the conteudo; falls back to placeholders when no AI provider is configured
// @Tags content
// @Accept json
// @Produce json
// @Param id path int true "conteudo id"
// @Param body body GenerateQuestionsRequest true "generation parameters"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/conteudos/{id}/questions/generate [post]
func (c *ContentController) GenerateQuestions(ctx *gin.Context) {
	conteudoID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req GenerateQuestionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyIntermediate
	}
	if !model.ValidDifficulty(difficulty) {
		util.BadRequest(ctx, "difficulty must be one of: beginner, intermediate, advanced")
		return
	}

	generated, err := c.AIService.GenerateQuizQuestions(ctx.Request.Context(), req.Topic, difficulty, req.Count)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	reqs := make([]service.QuestionRequest, 0, len(generated))
	for _, q := range generated {
		reqs = append(reqs, service.QuestionRequest{
			Text:          q.Text,
			Choices:       q.Choices,
			CorrectChoice: q.CorrectChoice,
			Explanation:   q.Explanation,
		})
	}

	questions, err := c.TrilhaService.AddQuestions(conteudoID, reqs)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"count": len(questions)})
}

// ListQuestionCount godoc
// @Summary Count the questions attached to a conteudo
// @Tags content
// @Produce json
// @Param id path int true "conteudo id"
// @Success 200 {object} util.Response{data=object}
// @Router /api/conteudos/{id}/questions/count [get]
func (c *ContentController) ListQuestionCount(ctx *gin.Context) {
	conteudoID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	count, err := c.TrilhaService.ConteudoRepo.CountQuestions(conteudoID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}
