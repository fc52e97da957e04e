package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/art-critique/internal/http/middleware"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services"
	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrMissingInput, http.StatusBadRequest},
	{services.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
	{services.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
	{services.ErrInvalidImage, http.StatusUnprocessableEntity},
	{services.ErrInferenceTimeout, http.StatusGatewayTimeout},
	{services.ErrInferenceUnavailable, http.StatusBadGateway},
}

// statusFor maps err to an HTTP status and a message safe to show callers.
func statusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, services.Message(err)
		}
	}
	return http.StatusInternalServerError, services.Message(err)
}

// === RESPONSE HANDLING ===

func (h *CritiqueHandler) respondError(c *gin.Context, err error) {
	statusCode, message := statusFor(err)
	code := services.Code(err)

	fields := []zap.Field{
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.String("code", code),
		zap.Error(err),
	}
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Analyze request failed", fields...)
	} else {
		h.logger.Info("Analyze request rejected", fields...)
	}

	c.Error(err)
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// === UTILITY METHODS ===

func (h *CritiqueHandler) collectHealth(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	statuses := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			statuses[name] = models.StatusNotConfigured
			continue
		}
		statuses[name] = check.HealthCheck(ctx)
	}
	return statuses
}

func (h *CritiqueHandler) calculateOverallHealth(statuses map[string]string) string {
	for _, status := range statuses {
		if status != models.StatusHealthy && status != models.StatusNotConfigured {
			return models.StatusUnhealthy
		}
	}
	return models.StatusHealthy
}
