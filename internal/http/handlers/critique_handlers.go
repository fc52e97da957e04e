package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services"
	"github.com/phambaophuc/art-critique/internal/services/critique"
	"github.com/phambaophuc/art-critique/internal/services/ingress"
	"go.uber.org/zap"
)

const imageParamKey = "image"

// HealthChecker reports the status of one dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) string
}

// StatsProvider exposes queue statistics.
type StatsProvider interface {
	GetQueueStats() (map[string]interface{}, error)
}

type CritiqueHandler struct {
	ingress  *ingress.Adapter
	pipeline *critique.Pipeline
	checks   map[string]HealthChecker
	stats    StatsProvider
	logger   *zap.Logger
}

// NewCritiqueHandler builds the handler. stats may be nil when the queue
// worker is disabled.
func NewCritiqueHandler(
	ingress *ingress.Adapter,
	pipeline *critique.Pipeline,
	checks map[string]HealthChecker,
	stats StatsProvider,
	logger *zap.Logger,
) *CritiqueHandler {
	return &CritiqueHandler{
		ingress:  ingress,
		pipeline: pipeline,
		checks:   checks,
		stats:    stats,
		logger:   logger,
	}
}

func (h *CritiqueHandler) Analyze(c *gin.Context) {
	header, err := c.FormFile(imageParamKey)
	if err != nil {
		h.respondError(c, services.ErrMissingInput)
		return
	}

	ctx := c.Request.Context()

	sub, release, err := h.ingress.Accept(ctx, header)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer release()

	result, err := h.pipeline.Analyze(ctx, sub)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Message:         models.AnalyzeSuccessMessage,
		FeedbackDetails: result,
	})
}

func (h *CritiqueHandler) HealthCheck(c *gin.Context) {
	statuses := h.collectHealth(c.Request.Context())
	overall := h.calculateOverallHealth(statuses)

	statusCode := http.StatusOK
	if overall == models.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == models.StatusHealthy,
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  statuses,
		},
	})
}

func (h *CritiqueHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"queue":     models.StatusNotConfigured,
		"timestamp": time.Now(),
	}

	if h.stats != nil {
		queueStats, err := h.stats.GetQueueStats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
			stats["queue"] = models.StatusUnhealthy
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
