// Package gate decides per message whether a chat is verified and drives the
// contact-share challenge for chats that are not.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/residentbot/core/ledger"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/phone"
	"github.com/m3rciful/residentbot/core/telegram"
)

// Outcome is the result of running a message through the gate.
type Outcome string

const (
	// OutcomePass means the chat is verified and the message goes on to the dispatcher.
	OutcomePass Outcome = "pass"
	// OutcomeVerified means a shared contact matched and the chat is now verified.
	OutcomeVerified Outcome = "verified"
	// OutcomeRejected means a shared contact did not verify the chat.
	OutcomeRejected Outcome = "rejected"
	// OutcomeChallenged means the chat was asked to share its contact.
	OutcomeChallenged Outcome = "challenged"
)

// Replies sent by the gate.
const (
	MsgVerified       = "✅ You are now verified! You can now use the bot and commands like `/housekeeping`."
	MsgRejected       = "🚫 Verification failed. Your number is not recognized by our system."
	MsgLedgerFailure  = "⚠️ Your number is recognized, but we could not complete verification right now. Please share your contact again later."
	MsgContactRequest = "📱 Please share your contact number to proceed. (Tap the 'Share Contact' button below)"
)

// SharedContact is the contact card attached to a message.
type SharedContact struct {
	UserID      int64
	PhoneNumber string
}

// IncomingMessage is the part of an update the bot acts on.
type IncomingMessage struct {
	UpdateID int
	ChatID   int64
	Text     string
	Contact  *SharedContact
}

// AllowList answers membership for canonical numbers.
type AllowList interface {
	Allowed(n phone.Number) bool
}

// Gate holds the collaborators needed to verify chats.
type Gate struct {
	ledger  ledger.Ledger
	allowed AllowList
	now     func() time.Time
}

// Option customises a Gate.
type Option func(*Gate)

// WithClock overrides the timestamp source used for ledger records.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New builds a Gate.
func New(l ledger.Ledger, allowed AllowList, opts ...Option) *Gate {
	g := &Gate{
		ledger:  l,
		allowed: allowed,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Verify normalizes rawPhone and, when it is allow-listed, records the chat
// as verified. A ledger write failure returns false with an error wrapping
// ledger.ErrLedger; the chat stays unverified.
func (g *Gate) Verify(ctx context.Context, chatID int64, rawPhone string) (bool, error) {
	number := phone.Normalize(rawPhone)
	if !phone.Canonical(number.String()) {
		logger.Warn(ctx, "gate", "phone.unnormalized",
			slog.String("phone", logger.MaskPhone(number.String())),
		)
	}
	if !g.allowed.Allowed(number) {
		logger.Info(ctx, "gate", "verify.rejected",
			slog.String("status", "rejected"),
			slog.String("outcome", "rejected"),
			slog.String("phone", logger.MaskPhone(number.String())),
		)
		return false, nil
	}

	rec := ledger.Record{ChatID: chatID, PhoneNumber: number.String(), VerifiedAt: g.now().UTC()}
	if err := g.ledger.Put(ctx, rec); err != nil {
		logger.Error(ctx, "gate", "verify.persist.failed",
			slog.String("status", "fail"),
			slog.String("phone", logger.MaskPhone(number.String())),
			slog.String("err", err.Error()),
		)
		if !errors.Is(err, ledger.ErrLedger) {
			err = fmt.Errorf("%w: %v", ledger.ErrLedger, err)
		}
		return false, err
	}

	logger.Info(ctx, "gate", "verify.ok",
		slog.String("status", "ok"),
		slog.String("outcome", "verified"),
		slog.String("phone", logger.MaskPhone(number.String())),
	)
	return true, nil
}

// Check runs msg through the gate and replies through gw when the chat is
// not verified. Only OutcomePass lets the message reach the dispatcher.
// Send failures are logged by the gateway and do not change the outcome.
func (g *Gate) Check(ctx context.Context, gw telegram.Gateway, msg IncomingMessage) Outcome {
	verified, err := ledger.IsVerified(ctx, g.ledger, msg.ChatID)
	if err != nil {
		logger.Warn(ctx, "gate", "lookup.failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		verified = false
	}
	if verified {
		return OutcomePass
	}

	if c := msg.Contact; c != nil && c.UserID == msg.ChatID {
		ok, err := g.Verify(ctx, msg.ChatID, c.PhoneNumber)
		switch {
		case ok:
			_ = gw.SendText(ctx, msg.ChatID, MsgVerified)
			return OutcomeVerified
		case errors.Is(err, ledger.ErrLedger):
			_ = gw.SendText(ctx, msg.ChatID, MsgLedgerFailure)
		default:
			_ = gw.SendText(ctx, msg.ChatID, MsgRejected)
		}
		return OutcomeRejected
	}

	if msg.Contact != nil {
		logger.Info(ctx, "gate", "contact.foreign",
			slog.String("status", "skip"),
			slog.Int64("user_id", msg.Contact.UserID),
		)
	}
	_ = gw.SendContactRequest(ctx, msg.ChatID, MsgContactRequest)
	logger.Debug(ctx, "gate", "challenge.sent",
		slog.String("status", "challenged"),
		slog.String("outcome", "challenged"),
	)
	return OutcomeChallenged
}
