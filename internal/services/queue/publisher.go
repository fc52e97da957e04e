package queue

import (
	"time"

	"github.com/streadway/amqp"
)

func (q *QueueService) publishReply(replyTo, correlationID string, body []byte) error {
	return q.publish(replyTo, replyPublishing(correlationID, body))
}

// replyPublishing wraps a reply body so the caller can match it to its
// request by correlation ID.
func replyPublishing(correlationID string, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
	}
}

func (q *QueueService) publish(routingKey string, msg amqp.Publishing) error {
	return q.channel.Publish(
		"",         // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
}
