package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/m3rciful/residentbot/core/logger"
)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain applies mws so the first one is outermost.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// DefaultMiddlewares returns the logging and panic recovery chain.
func DefaultMiddlewares() []Middleware {
	return []Middleware{Logger, Recover}
}

// Recover turns a panic in next into an error so the handler answers 500.
func Recover(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, env Envelope) (resp Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "webhook", "panic.recovered",
					slog.String("status", "fail"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				resp, err = Response{}, fmt.Errorf("webhook: panic: %v", r)
			}
		}()
		return next(ctx, env)
	}
}

// Logger attaches the correlation id and update metadata to ctx and logs one
// receipt line and one completion line per update.
func Logger(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, env Envelope) (Response, error) {
		start := time.Now()
		ctx = withDecodedUpdate(ctx, env)
		ctx = withUpdateContext(ctx, env)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if env.Body != nil {
				attrs = append(attrs, slog.Int("bytes", len(*env.Body)))
			}
			if upd, err := updateFrom(ctx, env); err == nil && upd.Message != nil {
				if t := upd.Message.Text; t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
				if upd.Message.Contact != nil {
					attrs = append(attrs, slog.String("phone", logger.MaskPhone(upd.Message.Contact.PhoneNumber)))
				}
			}
			logger.Debug(ctx, "webhook", "update.received", attrs...)
		}

		resp, err := next(ctx, env)

		code := resp.StatusCode
		status := "ok"
		switch {
		case errors.Is(err, ErrValidation):
			code, status = http.StatusBadRequest, "fail"
		case err != nil:
			code, status = http.StatusInternalServerError, "fail"
		}
		logger.Debug(ctx, "webhook", "update.done",
			slog.String("status", status),
			slog.Int("http_code", code),
			slog.Duration("duration", logger.Took(start)),
		)
		return resp, err
	}
}

func withUpdateContext(ctx context.Context, env Envelope) context.Context {
	var (
		updateID       int
		chatID, userID int64
	)
	if upd, err := updateFrom(ctx, env); err == nil {
		updateID = upd.ID
		if m := upd.Message; m != nil {
			if m.Chat != nil {
				chatID = m.Chat.ID
			}
			if m.Sender != nil {
				userID = m.Sender.ID
			}
		}
	}
	rid := logger.BuildRID(updateID, chatID, userID)
	ctx = logger.WithRID(ctx, rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	return logger.WithLogger(ctx, logger.Component("webhook"))
}
