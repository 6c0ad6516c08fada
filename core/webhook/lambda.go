package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/m3rciful/residentbot/core/logger"
)

// proxyEvent keeps the body as a pointer so a missing key stays
// distinguishable from an empty body.
type proxyEvent struct {
	Body            *string `json:"body"`
	IsBase64Encoded bool    `json:"isBase64Encoded"`
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

// HandleLambda adapts an API Gateway proxy invocation to Handle. Buffered
// log lines are flushed before it returns.
func (h *Handler) HandleLambda(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	defer func() {
		if err := logger.Flush(); err != nil {
			log.Printf("log flush error: %v", err)
		}
	}()

	var resp Response
	env, err := EnvelopeFromEvent(raw)
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp = errorResponse(http.StatusBadRequest, verr.Reason)
	} else {
		resp = h.Handle(ctx, env)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    jsonHeaders,
		Body:       resp.Body,
	}, nil
}

// EnvelopeFromEvent extracts the body of a proxy event, decoding base64 when flagged.
func EnvelopeFromEvent(raw json.RawMessage) (Envelope, error) {
	var evt proxyEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return Envelope{}, &ValidationError{Reason: MsgMissingBody, Err: err}
	}
	if evt.Body == nil || !evt.IsBase64Encoded {
		return Envelope{Body: evt.Body}, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(*evt.Body)
	if err != nil {
		return Envelope{}, &ValidationError{Reason: MsgInvalidJSON, Err: err}
	}
	return NewEnvelope(string(decoded)), nil
}
