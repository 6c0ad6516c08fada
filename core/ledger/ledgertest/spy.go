// Package ledgertest provides a ledger double that records calls.
package ledgertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/m3rciful/residentbot/core/ledger"
)

// Spy wraps an in-memory ledger, counts calls and injects failures.
type Spy struct {
	*ledger.MemoryLedger

	mu     sync.Mutex
	gets   int
	puts   []ledger.Record
	GetErr error
	PutErr error
}

// NewSpy returns a Spy pre-populated with verified chat ids.
func NewSpy(verified ...int64) *Spy {
	s := &Spy{MemoryLedger: ledger.NewMemoryLedger()}
	for _, id := range verified {
		_ = s.MemoryLedger.Put(context.Background(), ledger.Record{ChatID: id})
	}
	return s
}

// Get counts the call before delegating.
func (s *Spy) Get(ctx context.Context, chatID int64) (ledger.Record, bool, error) {
	s.mu.Lock()
	s.gets++
	err := s.GetErr
	s.mu.Unlock()
	if err != nil {
		return ledger.Record{}, false, fmt.Errorf("%w: %v", ledger.ErrLedger, err)
	}
	return s.MemoryLedger.Get(ctx, chatID)
}

// Put records the write before delegating.
func (s *Spy) Put(ctx context.Context, rec ledger.Record) error {
	s.mu.Lock()
	err := s.PutErr
	if err == nil {
		s.puts = append(s.puts, rec)
	}
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrLedger, err)
	}
	return s.MemoryLedger.Put(ctx, rec)
}

// Gets returns the number of Get calls.
func (s *Spy) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

// Puts returns the successful writes in order.
func (s *Spy) Puts() []ledger.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ledger.Record(nil), s.puts...)
}
