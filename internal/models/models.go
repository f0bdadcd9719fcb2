// Package models defines the domain types for Dagaz.
package models

import "time"

// Entry is one journal entry. Content is canonical markdown text; durable
// attachment locators embedded in it are the only linkage between the entry
// and its attachments.
type Entry struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"-"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	EntryDate time.Time  `json:"entry_date"`
	Location  *Location  `json:"location,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// Location is an optional place tag on an entry.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Attachment is the durable record of one uploaded binary. StoredFilename
// is opaque (never derived from user input) and uniquely identifies the
// backing file; a record whose file is gone is invalid and gets deleted.
type Attachment struct {
	ID             string    `json:"id"`
	EntryID        string    `json:"entry_id"`
	OwnerID        string    `json:"-"`
	StoredFilename string    `json:"-"`
	OriginalName   string    `json:"original_name"`
	MimeType       string    `json:"mime_type"`
	SizeBytes      int64     `json:"size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
}
