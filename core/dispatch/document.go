package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/m3rciful/residentbot/core/directory"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/telegram"
	"github.com/m3rciful/residentbot/core/telegram/format"
)

// Replies for document delivery failures.
const (
	MsgBucketNotFound = "❌ Error: The file storage bucket could not be found."
	MsgSendFailed     = "❌ An error occurred while sending the document via Telegram."
	MsgDocumentFailed = "❌ An unexpected error occurred while processing your document request."
)

// deliverDocument downloads key into a scratch file and uploads it. The
// scratch file is removed on every path.
func (d *Dispatcher) deliverDocument(ctx context.Context, gw telegram.Gateway, chatID int64, key, caption string) (err error) {
	start := time.Now()
	path := directory.ScratchPath(d.scratchDir, key)
	defer removeScratch(ctx, path)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("document delivery panic: %v", r)
		}
		if err != nil {
			logger.Error(ctx, "dispatch", "document.failed",
				slog.String("key", key),
				slog.String("err", err.Error()),
			)
			_ = gw.SendText(ctx, chatID, documentFailureText(key, err))
			return
		}
		logger.Info(ctx, "dispatch", "document.sent",
			slog.String("status", "ok"),
			slog.String("key", key),
			slog.Duration("duration", logger.Took(start)),
		)
	}()

	if d.store == nil {
		return fmt.Errorf("%w: no object store", directory.ErrStorage)
	}
	if err := d.store.Download(ctx, key, path); err != nil {
		return err
	}
	return gw.SendDocument(ctx, chatID, telegram.Document{
		Path:     path,
		FileName: filepath.Base(key),
		Caption:  caption,
	})
}

func documentFailureText(key string, err error) string {
	switch {
	case errors.Is(err, directory.ErrBucketNotFound):
		return MsgBucketNotFound
	case errors.Is(err, directory.ErrObjectNotFound):
		return fmt.Sprintf("❌ Error: The requested document '%s' was not found.", format.Escape(key))
	case errors.Is(err, telegram.ErrTransport):
		return MsgSendFailed
	}
	return MsgDocumentFailed
}

func removeScratch(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn(ctx, "dispatch", "scratch.cleanup.failed",
			slog.String("key", path),
			slog.String("err", err.Error()),
		)
	}
}
