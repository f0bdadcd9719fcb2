package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halvard/dagaz/internal/models"
)

const entryColumns = `id, owner_id, title, content, tags, entry_date,
	location_lat, location_lon, location_name, created_at, updated_at`

// InsertEntry stores a new entry row.
func (db *DB) InsertEntry(e *models.Entry) error {
	tagsJSON, _ := json.Marshal(nonNil(e.Tags))
	lat, lon, name := locationFields(e.Location)
	_, err := db.conn.Exec(`
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.OwnerID, e.Title, e.Content, string(tagsJSON), e.EntryDate,
		lat, lon, name, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db: insert entry: %w", err)
	}
	return nil
}

// GetEntry returns an entry owned by ownerID, excluding soft-deleted rows.
// A missing row yields sql.ErrNoRows.
func (db *DB) GetEntry(id, ownerID string) (*models.Entry, error) {
	row := db.conn.QueryRow(`
		SELECT `+entryColumns+` FROM entries
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, id, ownerID)
	return scanEntry(row)
}

// UpdateEntry rewrites the mutable columns of an existing entry.
func (db *DB) UpdateEntry(e *models.Entry) error {
	tagsJSON, _ := json.Marshal(nonNil(e.Tags))
	lat, lon, name := locationFields(e.Location)
	res, err := db.conn.Exec(`
		UPDATE entries SET title = ?, content = ?, tags = ?, entry_date = ?,
			location_lat = ?, location_lon = ?, location_name = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, e.Title, e.Content, string(tagsJSON), e.EntryDate,
		lat, lon, name, e.UpdatedAt, e.ID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("db: update entry: %w", err)
	}
	return requireRow(res)
}

// SoftDeleteEntry marks the entry deleted without destroying content.
func (db *DB) SoftDeleteEntry(id, ownerID string) error {
	res, err := db.conn.Exec(`
		UPDATE entries SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db: soft delete entry: %w", err)
	}
	return requireRow(res)
}

// HardDeleteEntry removes the row entirely. Attachment cleanup is the
// caller's responsibility.
func (db *DB) HardDeleteEntry(id, ownerID string) error {
	res, err := db.conn.Exec(`DELETE FROM entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db: hard delete entry: %w", err)
	}
	return requireRow(res)
}

// EntryOwned reports whether a live (not soft-deleted) entry exists for the
// given owner. Used as the ownership gate before any attachment operation.
func (db *DB) EntryOwned(id, ownerID string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`
		SELECT 1 FROM entries WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, id, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db: entry owned: %w", err)
	}
	return true, nil
}

// ListEntries returns a page of live entries for the owner, optionally
// filtered by tag, newest first by default.
func (db *DB) ListEntries(ownerID string, limit, offset int, tag, sort string) ([]models.Entry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := `owner_id = ? AND deleted_at IS NULL`
	args := []any{ownerID}
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	order := `entry_date DESC`
	switch sort {
	case "updated_at":
		order = `updated_at DESC`
	case "entry_date", "":
	default:
		return nil, 0, fmt.Errorf("db: unknown sort %q", sort)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM entries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db: count entries: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT `+entryColumns+` FROM entries WHERE `+where+`
		ORDER BY `+order+` LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("db: list entries: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*models.Entry, error) {
	var e models.Entry
	var tagsJSON, locName string
	var lat, lon sql.NullFloat64
	err := r.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &tagsJSON, &e.EntryDate,
		&lat, &lon, &locName, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil || e.Tags == nil {
		e.Tags = []string{}
	}
	if lat.Valid && lon.Valid {
		e.Location = &models.Location{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			Name:      strings.TrimSpace(locName),
		}
	}
	return &e, nil
}

func locationFields(l *models.Location) (lat, lon any, name string) {
	if l == nil {
		return nil, nil, ""
	}
	return l.Latitude, l.Longitude, l.Name
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
