// Package queue consumes critique requests from RabbitMQ and replies to the
// caller's reply queue.
package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/art-critique/internal/config"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services/critique"
	"github.com/phambaophuc/art-critique/internal/services/ingress"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AnalyzeFunc runs one image through ingress and the critique pipeline.
type AnalyzeFunc func(ctx context.Context, data []byte, filename, contentType string) (*models.CritiqueResult, error)

// NewAnalyzer stages the image, analyzes it and removes the staged copy.
func NewAnalyzer(adapter *ingress.Adapter, pipeline *critique.Pipeline) AnalyzeFunc {
	return func(ctx context.Context, data []byte, filename, contentType string) (*models.CritiqueResult, error) {
		sub, release, err := adapter.AcceptBytes(ctx, data, filename, contentType)
		if err != nil {
			return nil, err
		}
		defer release()

		return pipeline.Analyze(ctx, sub)
	}
}

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	workers   int
	analyze   AnalyzeFunc
}

func NewQueueService(cfg config.RabbitMQConfig, analyze AnalyzeFunc, logger *zap.Logger) (*QueueService, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	workers := max(cfg.Workers, 1)

	// Declare queue
	_, err = channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// one unacked delivery per worker
	if err := channel.Qos(workers, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger.With(zap.String("component", "queue")),
		queueName: cfg.Queue,
		workers:   workers,
		analyze:   analyze,
	}, nil
}

// StartWorkers starts the configured number of consumers. They stop when
// ctx is cancelled.
func (q *QueueService) StartWorkers(ctx context.Context) error {
	for i := 1; i <= q.workers; i++ {
		if err := q.StartWorker(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
