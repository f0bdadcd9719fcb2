// Package journal coordinates entry persistence with attachment
// reconciliation.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/halvard/dagaz/internal/apperr"
	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/checksum"
	"github.com/halvard/dagaz/internal/db"
	"github.com/halvard/dagaz/internal/models"
)

// EntryInput carries the writable fields of an entry.
type EntryInput struct {
	Title     string
	Content   string
	Tags      []string
	EntryDate time.Time
	Location  *models.Location
}

// EventCallback is invoked after a successful mutation.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, entryID string)

// Service implements entry CRUD. Every content save triggers attachment
// reconciliation, so orphan cleanup is an eventual side effect of editing.
type Service struct {
	db          db.Store
	attachments *attachment.Service
	logger      *slog.Logger
	onEvent     EventCallback
}

// NewService creates a journal service. cb may be nil.
func NewService(database db.Store, attachments *attachment.Service, logger *slog.Logger, cb EventCallback) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: database, attachments: attachments, logger: logger, onEvent: cb}
}

// GetEntry returns one live entry owned by the caller.
func (s *Service) GetEntry(ctx context.Context, ownerID, id string) (*models.Entry, error) {
	e, err := s.db.GetEntry(id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// CreateEntry persists a new entry and reconciles its attachments.
func (s *Service) CreateEntry(ctx context.Context, ownerID string, in EntryInput) (*models.Entry, error) {
	now := time.Now().UTC()
	e := &models.Entry{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		EntryDate: in.EntryDate,
		Location:  in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = now
	}
	if err := s.db.InsertEntry(e); err != nil {
		return nil, err
	}
	s.reconcile(ctx, e.ID, e.Content)
	s.publish("created", e.ID)
	return s.GetEntry(ctx, ownerID, e.ID)
}

// UpdateEntry rewrites an entry with optimistic concurrency: when ifMatch
// is non-empty it must equal the checksum of the current content.
// Reconciliation runs after the save so attachments dropped from the text
// are garbage-collected.
func (s *Service) UpdateEntry(ctx context.Context, ownerID, id string, in EntryInput, ifMatch string) (*models.Entry, error) {
	existing, err := s.GetEntry(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum([]byte(existing.Content)) {
		return nil, apperr.ErrConflict
	}

	e := &models.Entry{
		ID:        id,
		OwnerID:   ownerID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		EntryDate: in.EntryDate,
		Location:  in.Location,
		UpdatedAt: time.Now().UTC(),
	}
	if e.EntryDate.IsZero() {
		e.EntryDate = existing.EntryDate
	}
	if err := s.db.UpdateEntry(e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	s.reconcile(ctx, id, e.Content)
	s.publish("updated", id)
	return s.GetEntry(ctx, ownerID, id)
}

// DeleteEntry removes an entry. Soft deletion keeps content and attachment
// records; a hard delete destroys the row and every attachment with it.
func (s *Service) DeleteEntry(ctx context.Context, ownerID, id string, hard bool) error {
	var err error
	if hard {
		err = s.db.HardDeleteEntry(id, ownerID)
	} else {
		err = s.db.SoftDeleteEntry(id, ownerID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return err
	}
	if hard {
		if err := s.attachments.DeleteAllForEntry(ctx, id); err != nil {
			s.logger.Warn("attachment cleanup after hard delete failed",
				slog.String("entry_id", id),
				slog.String("error", err.Error()))
		}
	}
	s.publish("deleted", id)
	return nil
}

// ListEntries returns a page of the owner's live entries.
func (s *Service) ListEntries(ctx context.Context, ownerID string, limit, offset int, tag, sort string) ([]models.Entry, int, error) {
	return s.db.ListEntries(ownerID, limit, offset, tag, sort)
}

// reconcile is best-effort: a failed sweep is retried implicitly on the
// next save because reconciliation is idempotent.
func (s *Service) reconcile(ctx context.Context, entryID, content string) {
	if err := s.attachments.Reconcile(ctx, entryID, content); err != nil {
		s.logger.Warn("attachment reconcile failed",
			slog.String("entry_id", entryID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind, id string) {
	if s.onEvent != nil {
		s.onEvent(kind, id)
	}
}
