package attachment

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/halvard/dagaz/internal/db"
)

// EventCallback is called when the watcher detects record/file divergence.
// kind is currently always "missing".
type EventCallback func(kind, attachmentID string)

// Watch runs an fsnotify watcher on the uploads directory until ctx is
// cancelled. Binaries are only ever removed through the service, so a
// Remove or Rename event for a file that still has a record means someone
// deleted it out from under us; the divergence is logged and reported via
// cb so fetches can fail fast with the file-missing condition later.
func Watch(ctx context.Context, database db.Store, uploadsDir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(uploadsDir); err != nil {
		return err
	}
	logger.Info("uploads watcher started", slog.String("dir", uploadsDir))

	for {
		select {
		case <-ctx.Done():
			logger.Info("uploads watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".dagaz-tmp-") {
				continue
			}

			rec, err := database.GetAttachmentByStoredName(name)
			if errors.Is(err, sql.ErrNoRows) {
				// Deleted by the service itself, record already gone.
				continue
			}
			if err != nil {
				logger.Warn("uploads watcher lookup failed",
					slog.String("file", name),
					slog.String("error", err.Error()))
				continue
			}

			logger.Warn("attachment binary vanished while record remains",
				slog.String("attachment_id", rec.ID),
				slog.String("entry_id", rec.EntryID),
				slog.String("stored_filename", name))
			if cb != nil {
				cb("missing", rec.ID)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("uploads watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
