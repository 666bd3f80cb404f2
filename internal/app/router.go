package app

import (
	"trilha_edu_backend/docs"
	"trilha_edu_backend/internal/config"
	"trilha_edu_backend/internal/middleware"
	"trilha_edu_backend/internal/model"
	"trilha_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// browsing the catalog requires no account
		public.GET("/trilhas", c.trilha.List)
		public.GET("/trilhas/search", c.trilha.Search)
		public.GET("/trilhas/popular", c.trilha.Popular)
		public.GET("/trilhas/:id", c.trilha.Get)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/users/me", c.auth.Profile)
		authGroup.PUT("/users/me", c.auth.UpdateProfile)

		authGroup.POST("/trilhas/:id/enroll", c.trilha.Enroll)
		authGroup.GET("/trilhas/:id/progress", c.trilha.Progress)

		authGroup.POST("/quiz/sessions", c.quiz.StartQuiz)
		authGroup.GET("/quiz/sessions/:id/question", c.quiz.CurrentQuestion)
		authGroup.POST("/quiz/sessions/:id/answers", c.quiz.SubmitAnswer)
		authGroup.GET("/quiz/sessions/:id/results", c.quiz.Results)
		authGroup.DELETE("/quiz/sessions/:id", c.quiz.AbandonSession)
		authGroup.GET("/quiz/history", c.quiz.History)

		authGroup.GET("/recommendations", c.recommendation.Recommend)
	}

	admin := authGroup.Group("")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/trilhas", c.trilha.Create)
		admin.PUT("/trilhas/:id", c.trilha.Update)
		admin.DELETE("/trilhas/:id", c.trilha.Delete)
		admin.GET("/trilhas/:id/statistics", c.trilha.Statistics)

		admin.POST("/trilhas/:id/conteudos", c.content.AddConteudo)
		admin.POST("/conteudos/:id/questions", c.content.AddQuestions)
		admin.POST("/conteudos/:id/questions/generate", c.content.GenerateQuestions)
		admin.GET("/conteudos/:id/questions/count", c.content.ListQuestionCount)
		admin.POST("/content/upload", c.content.UploadMaterial)
	}
}
