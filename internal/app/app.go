package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trilha_edu_backend/internal/config"
	"trilha_edu_backend/internal/controller"
	"trilha_edu_backend/internal/repository"
	"trilha_edu_backend/internal/scheduler"
	"trilha_edu_backend/internal/service"
	"trilha_edu_backend/pkg/configwatcher"
	"trilha_edu_backend/pkg/database"
	"trilha_edu_backend/pkg/logger"
	"trilha_edu_backend/pkg/monitoring"
	"trilha_edu_backend/pkg/security"
	"trilha_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	reaper *scheduler.SessionReaper
}

type repositories struct {
	user       *repository.UserRepository
	trilha     *repository.TrilhaRepository
	conteudo   *repository.ConteudoRepository
	quiz       *repository.QuizRepository
	desempenho *repository.DesempenhoRepository
}

type services struct {
	storage        *service.StorageService
	auth           *service.AuthService
	ai             *service.AIService
	progress       *service.ProgressService
	quiz           *service.QuizService
	trilha         *service.TrilhaService
	recommendation *service.RecommendationService
}

type controllers struct {
	auth           *controller.AuthController
	quiz           *controller.QuizController
	trilha         *controller.TrilhaController
	content        *controller.ContentController
	recommendation *controller.RecommendationController
	health         *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		trilha:     repository.NewTrilhaRepository(db),
		conteudo:   repository.NewConteudoRepository(db),
		quiz:       repository.NewQuizRepository(db),
		desempenho: repository.NewDesempenhoRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.ai = service.NewAIService(cfg.AI)
	s.progress = service.NewProgressService(repos.desempenho, repos.trilha, repos.conteudo)
	s.quiz = service.NewQuizService(repos.quiz, repos.conteudo, s.progress, db, cfg.Quiz.TimeLimitSeconds)
	s.trilha = service.NewTrilhaService(repos.trilha, repos.conteudo, repos.desempenho)
	s.recommendation = service.NewRecommendationService(repos.trilha, repos.user, s.ai, rdb)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth),
		quiz:           controller.NewQuizController(s.quiz, a.Config.Quiz.HistoryLimit),
		trilha:         controller.NewTrilhaController(s.trilha, s.progress),
		content:        controller.NewContentController(s.trilha, s.storage, s.ai),
		recommendation: controller.NewRecommendationController(s.recommendation, s.auth),
		health:         controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// redis only backs caches; the engine works without it
		logger.Log.Warn("Redis unavailable, caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("trilha-edu", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		}
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.reaper = scheduler.NewSessionReaper(repos.quiz, services.quiz,
		time.Duration(cfg.Quiz.ReaperIntervalMinutes)*time.Minute)
	app.reaper.Start()

	// hot-reload quiz tunables; running sessions keep the limit they
	// started with
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(raw interface{}) {
		newCfg, ok := raw.(*config.Config)
		if !ok {
			return
		}
		services.quiz.TimeLimitSeconds = newCfg.Quiz.TimeLimitSeconds
		logger.Log.Info("Quiz configuration reloaded",
			zap.Int("time_limit_seconds", newCfg.Quiz.TimeLimitSeconds))
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.reaper != nil {
		a.reaper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
