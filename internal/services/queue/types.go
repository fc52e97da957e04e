package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/streadway/amqp"
)

const (
	filenameHeader  = "filename"
	defaultFilename = "upload"
)

var errEmptyBody = errors.New("delivery has an empty body")

// critiqueRequest is a delivery on the request queue. The body is the raw
// image; the declared media type travels as the message content type.
type critiqueRequest struct {
	Data          []byte
	Filename      string
	ContentType   string
	ReplyTo       string
	CorrelationID string
}

func requestFromDelivery(msg amqp.Delivery) (*critiqueRequest, error) {
	req := &critiqueRequest{
		Data:          msg.Body,
		Filename:      defaultFilename,
		ContentType:   msg.ContentType,
		ReplyTo:       msg.ReplyTo,
		CorrelationID: msg.CorrelationId,
	}

	switch v := msg.Headers[filenameHeader].(type) {
	case nil:
	case string:
		if name := strings.TrimSpace(v); name != "" {
			req.Filename = name
		}
	case []byte:
		if name := strings.TrimSpace(string(v)); name != "" {
			req.Filename = name
		}
	default:
		return req, fmt.Errorf("header %q has type %T, want string", filenameHeader, v)
	}

	if len(req.Data) == 0 {
		return req, errEmptyBody
	}
	return req, nil
}
