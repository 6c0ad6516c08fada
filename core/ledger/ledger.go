package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrLedger wraps every read or write failure of a ledger backend.
var ErrLedger = errors.New("ledger error")

// Record marks a chat as verified. It is written once and never updated by the bot.
type Record struct {
	ChatID      int64     `dynamodbav:"chat_id" db:"chat_id"`
	PhoneNumber string    `dynamodbav:"phone_number" db:"phone_number"`
	VerifiedAt  time.Time `dynamodbav:"verified_at" db:"verified_at"`
}

// Ledger persists verification records keyed by chat id.
type Ledger interface {
	// Get returns the record for chatID; ok is false when none exists.
	Get(ctx context.Context, chatID int64) (rec Record, ok bool, err error)
	// Put stores rec, replacing any previous record for the same chat.
	Put(ctx context.Context, rec Record) error
}

// IsVerified reports whether a record exists for chatID.
func IsVerified(ctx context.Context, l Ledger, chatID int64) (bool, error) {
	_, ok, err := l.Get(ctx, chatID)
	if err != nil {
		return false, err
	}
	return ok, nil
}
