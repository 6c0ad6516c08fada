package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/residentbot/core/gate"
)

// ErrValidation marks a malformed inbound envelope; it maps to 400.
var ErrValidation = errors.New("validation error")

// Client-facing validation messages.
const (
	MsgMissingBody   = "Invalid request format: 'body' key missing."
	MsgInvalidJSON   = "Invalid JSON in request body."
	MsgMissingChatID = "Chat ID not found in message."
)

// Envelope is the transport-neutral inbound request. A nil Body means the
// body key was absent.
type Envelope struct {
	Body *string
}

// NewEnvelope wraps body.
func NewEnvelope(body string) Envelope {
	return Envelope{Body: &body}
}

// Response is the status and JSON body returned to the transport.
type Response struct {
	StatusCode int
	Body       string
}

// ValidationError carries the client-facing reason for a 400.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrValidation, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
}

// Unwrap exposes ErrValidation and the cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// DecodeUpdate parses the envelope body as a Telegram update.
func DecodeUpdate(env Envelope) (tele.Update, error) {
	var upd tele.Update
	if env.Body == nil {
		return upd, &ValidationError{Reason: MsgMissingBody}
	}
	if err := json.Unmarshal([]byte(*env.Body), &upd); err != nil {
		return upd, &ValidationError{Reason: MsgInvalidJSON, Err: err}
	}
	return upd, nil
}

type decodedKey struct{}

type decoded struct {
	upd tele.Update
	err error
}

// withDecodedUpdate decodes env once and keeps the result on ctx for the
// rest of the chain.
func withDecodedUpdate(ctx context.Context, env Envelope) context.Context {
	if _, ok := ctx.Value(decodedKey{}).(*decoded); ok {
		return ctx
	}
	upd, err := DecodeUpdate(env)
	return context.WithValue(ctx, decodedKey{}, &decoded{upd: upd, err: err})
}

// updateFrom returns the update decoded earlier in the chain, decoding env
// when nothing was stored.
func updateFrom(ctx context.Context, env Envelope) (tele.Update, error) {
	if d, ok := ctx.Value(decodedKey{}).(*decoded); ok {
		return d.upd, d.err
	}
	return DecodeUpdate(env)
}

func messageFrom(ctx context.Context, env Envelope) (gate.IncomingMessage, error) {
	upd, err := updateFrom(ctx, env)
	if err != nil {
		return gate.IncomingMessage{}, err
	}
	return MessageFromUpdate(upd)
}

// MessageFromUpdate extracts the fields the gate and dispatcher act on.
func MessageFromUpdate(upd tele.Update) (gate.IncomingMessage, error) {
	m := upd.Message
	if m == nil || m.Chat == nil || m.Chat.ID == 0 {
		return gate.IncomingMessage{}, &ValidationError{Reason: MsgMissingChatID}
	}
	msg := gate.IncomingMessage{
		UpdateID: upd.ID,
		ChatID:   m.Chat.ID,
		Text:     m.Text,
	}
	if c := m.Contact; c != nil {
		msg.Contact = &gate.SharedContact{UserID: c.UserID, PhoneNumber: c.PhoneNumber}
	}
	return msg, nil
}

func jsonResponse(status int, key, value string) Response {
	body, _ := json.Marshal(map[string]string{key: value})
	return Response{StatusCode: status, Body: string(body)}
}

func messageResponse(status int, message string) Response {
	return jsonResponse(status, "message", message)
}

func errorResponse(status int, reason string) Response {
	return jsonResponse(status, "error", reason)
}
