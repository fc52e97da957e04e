package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/art-critique/internal/models"
)

func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}

	stats := map[string]interface{}{
		"messages":  queueInfo.Messages,
		"consumers": queueInfo.Consumers,
		"name":      queueInfo.Name,
		"workers":   q.workers,
	}

	return stats, nil
}

// HealthCheck checks if RabbitMQ is available
func (q *QueueService) HealthCheck(ctx context.Context) string {
	if q.conn == nil || q.conn.IsClosed() {
		return models.StatusUnhealthy + ": connection closed"
	}

	if q.channel == nil {
		return models.StatusUnhealthy + ": channel not available"
	}

	return models.StatusHealthy
}
