package server

import (
	"strconv"

	"distribution-service/internal/events"
	"distribution-service/internal/handler"
	"distribution-service/internal/middleware"
	"distribution-service/internal/repository"
	"distribution-service/internal/service"
	"distribution-service/pkg/config"
	"distribution-service/pkg/jwtutil"
	"distribution-service/pkg/logger"
	"distribution-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// multipart framing on top of the file itself
const uploadBodySlack = 1 << 20

// New wires repositories, services and handlers into an echo instance
func New(cfg *config.Config, db *gorm.DB, publisher events.Publisher, log *zap.Logger) *echo.Echo {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	dev := cfg.Server.IsDevelopment()

	agentRepo := &repository.AgentRepository{DB: db}
	listRepo := &repository.ListItemRepository{DB: db}
	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)

	authHandler := &handler.AuthHandler{
		Admins: &repository.AdminRepository{DB: db},
		JWT:    jwtUtil,
		Dev:    dev,
	}
	agentHandler := &handler.AgentHandler{Agents: agentRepo, Dev: dev}
	listHandler := &handler.ListHandler{
		Lists: &service.ListService{
			DB:        db,
			AgentRepo: agentRepo,
			ListRepo:  listRepo,
			Publisher: publisher,
			TempDir:   cfg.Upload.TempDir,
			Atomic:    cfg.Upload.AtomicDistribution,
		},
		MaxBytes: cfg.Upload.MaxBytes,
		Dev:      dev,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	// order matters: the logger commits errors before metrics reads the status
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(prometheus.MetricsMiddleware())
	e.Use(logger.Middleware(log))

	// Public routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	requireAuth := middleware.AuthMiddleware(jwtUtil)
	auth.GET("/user", authHandler.CurrentAdmin, requireAuth)

	agents := e.Group("/api/agents", requireAuth)
	agents.GET("", agentHandler.List)
	agents.POST("", agentHandler.Create)
	agents.GET("/:id", agentHandler.Get)
	agents.PUT("/:id", agentHandler.Update)
	agents.DELETE("/:id", agentHandler.Delete)

	lists := e.Group("/api/lists", requireAuth)
	lists.POST("/upload", listHandler.Upload,
		echomiddleware.BodyLimit(bodyLimit(cfg.Upload.MaxBytes+uploadBodySlack)))
	lists.GET("", listHandler.List)
	lists.GET("/summary", listHandler.Summary)
	lists.GET("/files", listHandler.Files)
	lists.GET("/agent/:agentId", listHandler.ListByAgent)
	lists.DELETE("/file/:filename", listHandler.DeleteFile)
	lists.DELETE("/:id", listHandler.Delete)

	return e
}

func bodyLimit(n int64) string {
	return strconv.FormatInt(n, 10) + "B"
}
