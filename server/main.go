package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/http/handlers"
	"github.com/phambaophuc/art-critique/internal/http/routes"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services/critique"
	"github.com/phambaophuc/art-critique/internal/services/inference"
	"github.com/phambaophuc/art-critique/internal/services/ingress"
	"github.com/phambaophuc/art-critique/internal/services/processor"
	"github.com/phambaophuc/art-critique/internal/services/queue"
	"github.com/phambaophuc/art-critique/internal/services/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Initialize logger
	logConfig := zap.NewProductionConfig()
	logger, err := logConfig.Build()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		logConfig.Level.SetLevel(level)
	} else {
		logger.Warn("Invalid LOG_LEVEL, keeping info", zap.String("level", cfg.Log.Level))
	}
	gin.SetMode(cfg.Server.Mode)

	// Initialize services
	stager, err := storage.NewStager(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize staging storage", zap.Error(err))
	}
	if closer, ok := stager.(io.Closer); ok {
		defer closer.Close()
	}

	client, err := inference.New(cfg.Inference, logger)
	if err != nil {
		logger.Fatal("Failed to initialize inference client", zap.Error(err))
	}

	imageProcessor := processor.NewImageProcessor(cfg.Storage.MaxDimension)
	adapter := ingress.New(imageProcessor, stager, cfg.Storage, logger)
	pipeline := critique.NewPipeline(client, stager, cfg.Inference.Timeout, logger)

	checks := map[string]handlers.HealthChecker{
		"staging":   stager,
		"inference": client,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var stats handlers.StatsProvider
	if cfg.RabbitMQ.Enabled() {
		queueService, err := queue.NewQueueService(cfg.RabbitMQ, queue.NewAnalyzer(adapter, pipeline), logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Continue with the HTTP boundary only
			checks["queue"] = unavailable{}
		} else {
			defer queueService.Close()
			if err := queueService.StartWorkers(workerCtx); err != nil {
				logger.Error("Failed to start queue workers", zap.Error(err))
			}
			checks["queue"] = queueService
			stats = queueService
		}
	} else {
		checks["queue"] = nil
	}

	// Initialize handlers
	critiqueHandler := handlers.NewCritiqueHandler(adapter, pipeline, checks, stats, logger)

	router := routes.NewRouter(critiqueHandler, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("provider", client.Name()),
			zap.String("model", client.Model()),
			zap.String("staging", stager.Name()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWorkers()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	pipeline.Wait()

	logger.Info("Server exited")
}

// unavailable reports a dependency that failed to initialize.
type unavailable struct{}

func (unavailable) HealthCheck(ctx context.Context) string {
	return models.StatusUnhealthy + ": not initialized"
}
