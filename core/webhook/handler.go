// Package webhook turns inbound Telegram updates into gate and dispatcher
// calls and maps the outcome to an HTTP-style response.
package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/residentbot/core/dispatch"
	"github.com/m3rciful/residentbot/core/gate"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/telegram"
)

// Status messages returned with 200 responses.
const (
	MsgUserVerified       = "User verified successfully."
	MsgVerificationFailed = "Verification failed: unrecognized number."
	MsgContactRequested   = "Requesting contact info for unverified user."
	MsgCommandProcessed   = "Command processed for verified user."

	MsgInternalError = "Internal Server Error"
	// MsgApology is sent to the chat when an update fails unexpectedly.
	MsgApology = "Sorry, an unexpected error occurred. The issue has been logged. Please try again later."
)

// HandlerFunc processes one envelope. A returned error maps to 500.
type HandlerFunc func(ctx context.Context, env Envelope) (Response, error)

// Handler is the single entry point for inbound updates.
type Handler struct {
	gate       *gate.Gate
	dispatcher *dispatch.Dispatcher
	gateway    telegram.Gateway
	chain      HandlerFunc
}

// NewHandler wires the gate and dispatcher behind the default middleware chain.
func NewHandler(g *gate.Gate, d *dispatch.Dispatcher, gw telegram.Gateway, mws ...Middleware) *Handler {
	h := &Handler{gate: g, dispatcher: d, gateway: gw}
	if len(mws) == 0 {
		mws = DefaultMiddlewares()
	}
	h.chain = Chain(h.serve, mws...)
	return h
}

// Handle runs env through the middleware chain. It never returns an error:
// unhandled failures become a 500 after a best-effort apology to the chat.
func (h *Handler) Handle(ctx context.Context, env Envelope) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := h.chain(ctx, env)
	if err == nil {
		return resp
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return errorResponse(http.StatusBadRequest, verr.Reason)
	}

	logger.Error(ctx, "webhook", "update.failed",
		slog.String("status", "fail"),
		slog.Int("http_code", http.StatusInternalServerError),
		slog.String("err", logger.SanitizeLimit(err.Error(), 512)),
	)
	h.apologize(ctx, env)
	return errorResponse(http.StatusInternalServerError, MsgInternalError)
}

func (h *Handler) apologize(ctx context.Context, env Envelope) {
	if h.gateway == nil {
		return
	}
	upd, err := updateFrom(ctx, env)
	if err != nil || upd.Message == nil || upd.Message.Chat == nil || upd.Message.Chat.ID == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "webhook", "apology.panic", slog.Any("err", r))
		}
	}()
	if err := h.gateway.SendText(ctx, upd.Message.Chat.ID, MsgApology); err != nil {
		logger.Warn(ctx, "webhook", "apology.failed", slog.String("err", err.Error()))
	}
}

func (h *Handler) serve(ctx context.Context, env Envelope) (Response, error) {
	start := time.Now()
	msg, err := messageFrom(ctx, env)
	if err != nil {
		logger.Warn(ctx, "webhook", "update.invalid",
			slog.String("status", "fail"),
			slog.String("outcome", "invalid"),
			slog.String("err", err.Error()),
		)
		return Response{}, err
	}
	if h.gate == nil || h.dispatcher == nil || h.gateway == nil {
		return Response{}, errors.New("webhook: handler is not fully wired")
	}

	gw := telegram.NewCounting(h.gateway)
	outcome := h.gate.Check(ctx, gw, msg)

	var (
		resp   Response
		branch string
		extra  []slog.Attr
	)
	switch outcome {
	case gate.OutcomeVerified:
		resp = messageResponse(http.StatusOK, MsgUserVerified)
	case gate.OutcomeRejected:
		resp = messageResponse(http.StatusOK, MsgVerificationFailed)
	case gate.OutcomeChallenged:
		resp = messageResponse(http.StatusOK, MsgContactRequested)
	case gate.OutcomePass:
		text := strings.ToLower(strings.TrimSpace(msg.Text))
		res := h.dispatcher.Dispatch(ctx, gw, msg.ChatID, text)
		branch = string(res.Branch)
		ctx = logger.WithBranch(ctx, branch)
		if res.Command != "" {
			extra = append(extra, slog.String("command", res.Command))
		}
		if res.Err != nil {
			extra = append(extra, slog.String("err", logger.SanitizeLimit(res.Err.Error(), 256)))
		}
		resp = messageResponse(http.StatusOK, MsgCommandProcessed)
	default:
		return Response{}, errors.New("webhook: unknown gate outcome " + string(outcome))
	}

	logSummary(ctx, gw, outcome, start, extra...)
	return resp, nil
}

func logSummary(ctx context.Context, gw *telegram.Counting, outcome gate.Outcome, start time.Time, extra ...slog.Attr) {
	msgs, kb := gw.Counters()
	out := string(outcome)
	if outcome == gate.OutcomePass {
		out = "dispatched"
	}
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("outcome", out),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	attrs = append(attrs, extra...)
	logger.Info(ctx, "webhook", "update.handled", attrs...)
}
