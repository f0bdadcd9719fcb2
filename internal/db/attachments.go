package db

import (
	"fmt"
	"strings"

	"github.com/halvard/dagaz/internal/models"
)

const attachmentColumns = `id, entry_id, owner_id, stored_filename,
	original_name, mime_type, size_bytes, created_at`

// InsertAttachment stores a new attachment record.
func (db *DB) InsertAttachment(a *models.Attachment) error {
	_, err := db.conn.Exec(`
		INSERT INTO attachments (`+attachmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.EntryID, a.OwnerID, a.StoredFilename,
		a.OriginalName, a.MimeType, a.SizeBytes, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db: insert attachment: %w", err)
	}
	return nil
}

// GetAttachment returns the record matching all three identifiers, so an
// attachment is only reachable through its own entry and owner. A missing
// row yields sql.ErrNoRows.
func (db *DB) GetAttachment(id, entryID, ownerID string) (*models.Attachment, error) {
	row := db.conn.QueryRow(`
		SELECT `+attachmentColumns+` FROM attachments
		WHERE id = ? AND entry_id = ? AND owner_id = ?
	`, id, entryID, ownerID)
	var a models.Attachment
	err := row.Scan(&a.ID, &a.EntryID, &a.OwnerID, &a.StoredFilename,
		&a.OriginalName, &a.MimeType, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAttachmentByStoredName looks a record up by its opaque stored filename.
// Used by the uploads-dir watcher to map file events back to records.
func (db *DB) GetAttachmentByStoredName(storedFilename string) (*models.Attachment, error) {
	row := db.conn.QueryRow(`
		SELECT `+attachmentColumns+` FROM attachments WHERE stored_filename = ?
	`, storedFilename)
	var a models.Attachment
	err := row.Scan(&a.ID, &a.EntryID, &a.OwnerID, &a.StoredFilename,
		&a.OriginalName, &a.MimeType, &a.SizeBytes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttachmentsByEntry returns every record for one entry.
func (db *DB) ListAttachmentsByEntry(entryID string) ([]models.Attachment, error) {
	rows, err := db.conn.Query(`
		SELECT `+attachmentColumns+` FROM attachments WHERE entry_id = ? ORDER BY created_at
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("db: list attachments: %w", err)
	}
	defer rows.Close()

	var out []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.EntryID, &a.OwnerID, &a.StoredFilename,
			&a.OriginalName, &a.MimeType, &a.SizeBytes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAttachment removes one record.
func (db *DB) DeleteAttachment(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM attachments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("db: delete attachment: %w", err)
	}
	return nil
}

// DeleteAttachments removes a batch of records in one statement. Record
// deletion is authoritative; binary cleanup happens separately.
func (db *DB) DeleteAttachments(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := db.conn.Exec(`DELETE FROM attachments WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("db: delete attachments: %w", err)
	}
	return nil
}
