package server

import (
	"net/http"
	"time"

	"backend/internal/config"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/notifier"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
	bot    *notifier.Bot
	log    *logrus.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger, bot *notifier.Bot) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
		bot:    bot,
		log:    logrus.New(),
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	jwtSecret := []byte(s.cfg.JWT.Secret)
	cacheTTL := time.Duration(s.cfg.Cache.TTLSeconds) * time.Second

	userRepo := repository.NewUserRepository(s.db, s.logger)
	exampleRepo := repository.NewExampleRepository(s.db, s.logger)
	contextRepo := repository.NewContextRepository(s.db, s.logger)
	roundRepo := repository.NewRoundRepository(s.db, s.logger)
	taskRepo := repository.NewTaskRepository(s.db, s.logger)
	modelRepo := repository.NewModelRepository(s.db, s.logger)
	validationRepo := repository.NewValidationRepository(s.db, s.logger)

	authService := service.NewAuthService(userRepo, jwtSecret, s.logger)
	exampleService := service.NewExampleService(exampleRepo, contextRepo, roundRepo,
		taskRepo, modelRepo, userRepo, cacheTTL, s.logger)

	var flagNotifier service.Notifier
	if s.bot != nil {
		flagNotifier = s.bot
	}
	validationService := service.NewValidationService(validationRepo, flagNotifier, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	exampleHandler := handler.NewExampleHandler(exampleService, s.logger)
	validationHandler := handler.NewValidationHandler(validationService, s.logger)
	taskHandler := handler.NewTaskHandler(taskRepo, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(jwtSecret, s.logger))
	{
		authRequired.POST("/examples", exampleHandler.Submit)
		authRequired.GET("/examples/round/:rid/random", exampleHandler.GetRandom)
		authRequired.GET("/examples/round/:rid/random/filtered", exampleHandler.GetRandomFiltered)
		authRequired.GET("/examples/task/:tid", exampleHandler.ListByTask)
		authRequired.GET("/examples/task/:tid/round/:rid/export", exampleHandler.Export)
		authRequired.GET("/contexts/round/:rid", exampleHandler.Contexts)
		authRequired.GET("/tasks/:id", taskHandler.Get)
		authRequired.POST("/examples/:id/validate", validationHandler.Validate)
		authRequired.GET("/examples/:id/validations", validationHandler.Counts)
	}
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
