package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/residentbot/core/logger"
)

const (
	selectRecordSQL = `SELECT chat_id, phone_number, verified_at FROM verified_users WHERE chat_id = $1`
	upsertRecordSQL = `INSERT INTO verified_users (chat_id, phone_number, verified_at) VALUES ($1, $2, $3)
ON CONFLICT (chat_id) DO UPDATE SET phone_number = EXCLUDED.phone_number, verified_at = EXCLUDED.verified_at`
)

// PostgresLedger stores records in the verified_users table.
type PostgresLedger struct {
	db *sqlx.DB
}

var _ Ledger = (*PostgresLedger)(nil)

// NewPostgresLedger wraps an open database handle.
func NewPostgresLedger(db *sqlx.DB) (*PostgresLedger, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: database handle is nil", ErrLedger)
	}
	return &PostgresLedger{db: db}, nil
}

// Get fetches the record for chatID.
func (l *PostgresLedger) Get(ctx context.Context, chatID int64) (Record, bool, error) {
	var rec Record
	err := l.db.GetContext(ctx, &rec, selectRecordSQL, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Debug(ctx, "ledger", "get.miss", slog.String("db", "postgres"))
		return Record{}, false, nil
	case err != nil:
		logger.Error(ctx, "ledger", "get.failed",
			slog.String("db", "postgres"),
			slog.String("err", err.Error()),
		)
		return Record{}, false, fmt.Errorf("%w: get chat %d: %v", ErrLedger, chatID, err)
	}
	logger.Debug(ctx, "ledger", "get.hit", slog.String("db", "postgres"))
	return rec, true, nil
}

// Put upserts rec; the last write for a chat wins.
func (l *PostgresLedger) Put(ctx context.Context, rec Record) error {
	if _, err := l.db.ExecContext(ctx, upsertRecordSQL, rec.ChatID, rec.PhoneNumber, rec.VerifiedAt); err != nil {
		logger.Error(ctx, "ledger", "put.failed",
			slog.String("db", "postgres"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: put chat %d: %v", ErrLedger, rec.ChatID, err)
	}
	logger.Info(ctx, "ledger", "put",
		slog.String("db", "postgres"),
		slog.String("phone", logger.MaskPhone(rec.PhoneNumber)),
	)
	return nil
}
