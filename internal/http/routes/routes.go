package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/http/handlers"
	"github.com/phambaophuc/art-critique/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	critiqueHandler *handlers.CritiqueHandler
	config          config.ServerConfig
	maxUploadSize   int64
	logger          *zap.Logger
}

func NewRouter(
	critiqueHandler *handlers.CritiqueHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		critiqueHandler: critiqueHandler,
		config:          cfg.Server,
		maxUploadSize:   cfg.Storage.MaxFileSize,
		logger:          logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = r.maxUploadSize

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.config.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	router.POST("/analyze", middleware.RequireMultipart(), r.critiqueHandler.Analyze)

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.critiqueHandler.HealthCheck)
		v1.GET("/stats", r.critiqueHandler.GetStats)
		v1.POST("/analyze", middleware.RequireMultipart(), r.critiqueHandler.Analyze)
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Art critique service is running",
		})
	})

	return router
}
