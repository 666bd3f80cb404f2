package controller

import (
	"strconv"

	"trilha_edu_backend/internal/service"
	"trilha_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService  *service.QuizService
	HistoryLimit int
}

func NewQuizController(quizService *service.QuizService, historyLimit int) *QuizController {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &QuizController{QuizService: quizService, HistoryLimit: historyLimit}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

type StartQuizRequest struct {
	ConteudoID uint `json:"conteudoId" binding:"required"`
}

// StartQuiz godoc
// @Summary Start a quiz session
// @Description Starts a quiz session for a conteudo, or resumes the caller's active one
// @Tags quiz
// @Accept json
// @Produce json
// @Param body body StartQuizRequest true "conteudo to quiz on"
// @Success 201 {object} util.Response{data=service.StartSessionResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions [post]
func (c *QuizController) StartQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req StartQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.StartSession(claims.UserID, req.ConteudoID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	if result.Resumed {
		util.Success(ctx, result)
		return
	}
	util.Created(ctx, result)
}

// CurrentQuestion godoc
// @Summary Get the session's current question
// @Tags quiz
// @Produce json
// @Param id path int true "session id"
// @Success 200 {object} util.Response{data=service.CurrentQuestion}
// @Failure 404 {object} util.Response
// @Failure 410 {object} util.Response
// @Router /api/quiz/sessions/{id}/question [get]
func (c *QuizController) CurrentQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	question, err := c.QuizService.GetCurrentQuestion(sessionID, claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

type SubmitAnswerRequest struct {
	SelectedChoice string `json:"selectedChoice" binding:"required"`
}

// SubmitAnswer godoc
// @Summary Answer the session's current question
// @Description Scores the choice, advances the session, and returns results when the quiz completes
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path int true "session id"
// @Param body body SubmitAnswerRequest true "chosen letter a..e"
// @Success 200 {object} util.Response{data=service.AnswerFeedback}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 410 {object} util.Response
// @Router /api/quiz/sessions/{id}/answers [post]
func (c *QuizController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	feedback, err := c.QuizService.SubmitAnswer(sessionID, claims.UserID, req.SelectedChoice)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}

// AbandonSession godoc
// @Summary Abandon a quiz session
// @Tags quiz
// @Produce json
// @Param id path int true "session id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz/sessions/{id} [delete]
func (c *QuizController) AbandonSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.QuizService.AbandonSession(sessionID, claims.UserID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"abandoned": true})
}

// Results godoc
// @Summary Get the results of a completed session
// @Tags quiz
// @Produce json
// @Param id path int true "session id"
// @Success 200 {object} util.Response{data=service.QuizResults}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/quiz/sessions/{id}/results [get]
func (c *QuizController) Results(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	results, err := c.QuizService.GetResults(sessionID, claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// History godoc
// @Summary List the caller's recent quiz sessions
// @Tags quiz
// @Produce json
// @Param limit query int false "max entries, default 10"
// @Success 200 {object} util.Response{data=[]service.QuizHistoryEntry}
// @Router /api/quiz/history [get]
func (c *QuizController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit < 1 {
		limit = c.HistoryLimit
	}

	history, err := c.QuizService.GetUserHistory(claims.UserID, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, history)
}
