package ledger

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T) (*PostgresLedger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l, err := NewPostgresLedger(sqlx.NewDb(db, "postgres"))
	require.NoError(t, err)
	return l, mock
}

func TestPostgresLedgerGet(t *testing.T) {
	l, mock := newMockLedger(t)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectRecordSQL)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"chat_id", "phone_number", "verified_at"}).
			AddRow(int64(7), "+91 98765 43210", at))

	rec, ok, err := l.Get(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), rec.ChatID)
	assert.Equal(t, "+91 98765 43210", rec.PhoneNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerGetMissing(t *testing.T) {
	l, mock := newMockLedger(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordSQL)).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)

	_, ok, err := l.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerPut(t *testing.T) {
	l, mock := newMockLedger(t)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(upsertRecordSQL)).
		WithArgs(int64(9), "+91 12345 67890", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, l.Put(context.Background(), Record{ChatID: 9, PhoneNumber: "+91 12345 67890", VerifiedAt: at}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerErrors(t *testing.T) {
	l, mock := newMockLedger(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordSQL)).WillReturnError(errors.New("conn reset"))
	mock.ExpectExec(regexp.QuoteMeta(upsertRecordSQL)).WillReturnError(errors.New("read only"))

	_, _, err := l.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLedger)
	err = l.Put(context.Background(), Record{ChatID: 1})
	assert.ErrorIs(t, err, ErrLedger)

	_, err = NewPostgresLedger(nil)
	assert.ErrorIs(t, err, ErrLedger)
}
