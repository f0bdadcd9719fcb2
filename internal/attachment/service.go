// Package attachment owns durable attachment records, their backing binary
// files, and the reconciliation that keeps them consistent with entry
// content.
package attachment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halvard/dagaz/internal/apperr"
	"github.com/halvard/dagaz/internal/db"
	"github.com/halvard/dagaz/internal/models"
	"github.com/halvard/dagaz/internal/storage"
)

// allowedTypes is the fixed raster-image allow-list. The value is the file
// extension used for the opaque stored name.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Locator returns the durable in-content address of an attachment. The
// same form is served by the fetch endpoint, embedded in upload responses,
// and matched by Reconcile — it must never drift between those three.
func Locator(entryID, attachmentID string) string {
	return "/api/entries/" + entryID + "/attachments/" + attachmentID
}

// Upload is one incoming binary. MimeType is the declared media type; the
// allow-list is enforced on it, not on sniffed content.
type Upload struct {
	OriginalName string
	MimeType     string
	Data         []byte
}

// Service implements the attachment store and reconciler over the record
// database and the blob storage provider.
type Service struct {
	db       db.Store
	store    storage.Provider
	maxBytes int64
	logger   *slog.Logger
}

// NewService creates an attachment service. maxBytes is the per-file size
// ceiling.
func NewService(database db.Store, store storage.Provider, maxBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: database, store: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes returns the configured size ceiling.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Create validates and persists one upload for an entry the caller owns.
// The ownership check always precedes any storage work. On success the
// binary exists under a freshly generated opaque name and the record points
// at it; if the record insert fails the binary is removed again so no
// orphaned file is left behind.
func (s *Service) Create(ctx context.Context, ownerID, entryID string, up Upload) (*models.Attachment, error) {
	if err := s.requireEntry(entryID, ownerID); err != nil {
		return nil, err
	}

	ext, ok := allowedTypes[up.MimeType]
	if !ok {
		return nil, apperr.ErrUnsupportedType
	}
	if int64(len(up.Data)) > s.maxBytes {
		return nil, apperr.ErrPayloadTooLarge
	}

	stored := uuid.New().String() + ext
	if err := s.store.Write(stored, up.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	rec := &models.Attachment{
		ID:             uuid.New().String(),
		EntryID:        entryID,
		OwnerID:        ownerID,
		StoredFilename: stored,
		OriginalName:   up.OriginalName,
		MimeType:       up.MimeType,
		SizeBytes:      int64(len(up.Data)),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.InsertAttachment(rec); err != nil {
		s.removeFile(stored)
		return nil, err
	}
	return rec, nil
}

// Open streams the binary for an attachment reachable through the given
// owner and entry. A record without its backing file is reported as the
// distinct ErrFileMissing, not a generic not-found.
func (s *Service) Open(ctx context.Context, ownerID, entryID, attachmentID string) (io.ReadCloser, *models.Attachment, error) {
	if err := s.requireEntry(entryID, ownerID); err != nil {
		return nil, nil, err
	}
	rec, err := s.db.GetAttachment(attachmentID, entryID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	rc, err := s.store.Open(rec.StoredFilename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.ErrFileMissing
		}
		return nil, nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return rc, rec, nil
}

// Delete removes one attachment. The record is deleted first and is
// authoritative; the binary delete is best-effort and never reported.
func (s *Service) Delete(ctx context.Context, ownerID, entryID, attachmentID string) error {
	if err := s.requireEntry(entryID, ownerID); err != nil {
		return err
	}
	rec, err := s.db.GetAttachment(attachmentID, entryID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteAttachment(rec.ID); err != nil {
		return err
	}
	s.removeFile(rec.StoredFilename)
	return nil
}

// DeleteAllForEntry destroys every record for an entry, then best-effort
// deletes each binary. Used when the entry itself is hard-deleted, so no
// ownership gate applies here — the caller has already authorized it.
func (s *Service) DeleteAllForEntry(ctx context.Context, entryID string) error {
	recs, err := s.db.ListAttachmentsByEntry(entryID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	if err := s.db.DeleteAttachments(ids); err != nil {
		return err
	}
	for _, r := range recs {
		s.removeFile(r.StoredFilename)
	}
	return nil
}

// Reconcile garbage-collects attachments no longer referenced by the saved
// content: any record whose durable locator does not occur in the text is
// orphaned. Records are deleted in one batch, binaries best-effort after.
// Idempotent, and a no-op when the entry has no records.
func (s *Service) Reconcile(ctx context.Context, entryID, savedContent string) error {
	recs, err := s.db.ListAttachmentsByEntry(entryID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	var orphans []models.Attachment
	for _, r := range recs {
		if !strings.Contains(savedContent, Locator(entryID, r.ID)) {
			orphans = append(orphans, r)
		}
	}
	if len(orphans) == 0 {
		return nil
	}

	ids := make([]string, len(orphans))
	for i, r := range orphans {
		ids[i] = r.ID
	}
	if err := s.db.DeleteAttachments(ids); err != nil {
		return err
	}
	for _, r := range orphans {
		s.removeFile(r.StoredFilename)
	}
	s.logger.Info("reconciled orphaned attachments",
		slog.String("entry_id", entryID),
		slog.Int("count", len(orphans)))
	return nil
}

// removeFile is fire-and-forget binary deletion: failure is logged and
// never propagated. A dangling file is a recoverable leak, not a
// correctness violation, because records are the source of truth.
func (s *Service) removeFile(stored string) {
	if err := s.store.Delete(stored); err != nil {
		s.logger.Warn("attachment file delete failed",
			slog.String("stored_filename", stored),
			slog.String("error", err.Error()))
	}
}

func (s *Service) requireEntry(entryID, ownerID string) error {
	ok, err := s.db.EntryOwned(entryID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}
