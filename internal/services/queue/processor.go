package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services"
	"go.uber.org/zap"
)

// processRequest analyzes one request and builds the reply body.
func (q *QueueService) processRequest(ctx context.Context, req *critiqueRequest) []byte {
	start := time.Now()

	result, err := q.analyze(ctx, req.Data, req.Filename, req.ContentType)
	if err != nil {
		q.logger.Error("Critique request failed",
			zap.String("correlation_id", req.CorrelationID),
			zap.String("code", services.Code(err)),
			zap.Error(err))
	} else {
		q.logger.Info("Critique request completed",
			zap.String("correlation_id", req.CorrelationID),
			zap.Bool("fallback", result.IsFallback()),
			zap.Duration("duration", time.Since(start)))
	}

	return buildReply(result, err)
}

// buildReply encodes the same bodies the HTTP boundary returns: the analyze
// response on success, the error envelope otherwise. Causes are logged, not
// sent.
func buildReply(result *models.CritiqueResult, err error) []byte {
	var body interface{}
	if err != nil {
		body = models.APIResponse{
			Success: false,
			Error:   services.Message(err),
			Code:    services.Code(err),
		}
	} else {
		body = models.AnalyzeResponse{
			Message:         models.AnalyzeSuccessMessage,
			FeedbackDetails: result,
		}
	}

	data, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		data, _ = json.Marshal(models.APIResponse{Success: false, Error: services.InternalMessage, Code: "internal"})
	}
	return data
}
