package directory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/residentbot/core/logger"
)

// Loader builds a Snapshot from the allow-list and contacts spreadsheets.
type Loader struct {
	store       ObjectStore
	scratchDir  string
	allowedKey  string
	contactsKey string
}

// NewLoader configures a Loader. An empty scratchDir selects os.TempDir.
func NewLoader(store ObjectStore, scratchDir, allowedKey, contactsKey string) *Loader {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Loader{
		store:       store,
		scratchDir:  scratchDir,
		allowedKey:  allowedKey,
		contactsKey: contactsKey,
	}
}

// Load fetches and parses both spreadsheets. Failures are logged and fall
// back to an empty allow-list or directory, so Load never fails.
func (l *Loader) Load(ctx context.Context) *Snapshot {
	start := time.Now()

	allowed, err := fetchParsed(ctx, l, l.allowedKey, ParseAllowList)
	if err != nil {
		logger.Error(ctx, "directory", "allowlist.load.failed",
			slog.String("key", l.allowedKey),
			slog.String("err", err.Error()),
		)
		allowed = AllowList{}
	}

	contacts, err := fetchParsed(ctx, l, l.contactsKey, ParseContacts)
	if err != nil {
		logger.Error(ctx, "directory", "contacts.load.failed",
			slog.String("key", l.contactsKey),
			slog.String("err", err.Error()),
		)
		contacts = nil
	}

	snap := NewSnapshot(allowed, contacts)
	logger.Info(ctx, "directory", "snapshot.loaded",
		slog.Int("allowed", snap.AllowedCount()),
		slog.Int("count", snap.ContactCount()),
		slog.Duration("duration", logger.Took(start)),
	)
	return snap
}

// ScratchPath returns a unique file path under dir for the object key.
func ScratchPath(dir, key string) string {
	return filepath.Join(dir, uuid.NewString()+"-"+filepath.Base(key))
}

func fetchParsed[T any](ctx context.Context, l *Loader, key string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	if l.store == nil {
		return zero, fmt.Errorf("%w: no object store", ErrStorage)
	}

	path := ScratchPath(l.scratchDir, key)
	defer os.Remove(path)

	if err := l.store.Download(ctx, key, path); err != nil {
		return zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("%w: open %s: %v", ErrStorage, path, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
