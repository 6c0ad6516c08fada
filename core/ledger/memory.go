package ledger

import (
	"context"
	"sync"
)

// MemoryLedger keeps records in process memory. Records are lost on restart,
// so it only suits local runs and tests.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[int64]Record
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[int64]Record)}
}

// Get returns the stored record for chatID.
func (l *MemoryLedger) Get(_ context.Context, chatID int64) (Record, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[chatID]
	return rec, ok, nil
}

// Put stores rec; the last write wins.
func (l *MemoryLedger) Put(_ context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[rec.ChatID] = rec
	return nil
}

// Len returns the number of stored records.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
