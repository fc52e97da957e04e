package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/art-critique/internal/services"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	req, err := requestFromDelivery(msg)
	if err != nil {
		q.logger.Error("Malformed critique request",
			zap.Error(err),
			zap.String("correlation_id", msg.CorrelationId),
			zap.Int("worker_id", workerID))

		if req != nil && req.ReplyTo != "" {
			q.reply(req, buildReply(nil, fmt.Errorf("%w: %w", services.ErrMissingInput, err)))
		}
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing critique request",
		zap.String("correlation_id", req.CorrelationID),
		zap.String("filename", req.Filename),
		zap.Int("size", len(req.Data)),
		zap.Int("worker_id", workerID))

	body := q.processRequest(ctx, req)
	if req.ReplyTo != "" {
		q.reply(req, body)
	}

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err))
	}
}

func (q *QueueService) reply(req *critiqueRequest, body []byte) {
	if err := q.publishReply(req.ReplyTo, req.CorrelationID, body); err != nil {
		q.logger.Error("Failed to publish reply",
			zap.String("correlation_id", req.CorrelationID),
			zap.String("reply_to", req.ReplyTo),
			zap.Error(err))
	}
}
