package api

import (
	"time"

	"github.com/halvard/dagaz/internal/checksum"
	"github.com/halvard/dagaz/internal/models"
)

// EntryRequest is the request body for creating or updating an entry.
type EntryRequest struct {
	Title     string           `json:"title" example:"Morning pages" validate:"required"`
	Content   string           `json:"content" example:"Slept well. ![sunrise](/api/entries/e1/attachments/a1)"`
	Tags      []string         `json:"tags" example:"travel,food"`
	EntryDate *time.Time       `json:"entry_date,omitempty"`
	Location  *models.Location `json:"location,omitempty"`
}

// EntryDetail is the full entry response. Checksum is the If-Match token
// for the next update.
type EntryDetail struct {
	*models.Entry
	Checksum string `json:"checksum" example:"abc123..." validate:"required"`
}

func toEntryDetail(e *models.Entry) EntryDetail {
	return EntryDetail{Entry: e, Checksum: checksum.Sum([]byte(e.Content))}
}

// EntryListResponse wraps paginated entry listings.
type EntryListResponse struct {
	Entries []EntryDetail `json:"entries" validate:"required"`
	Total   int           `json:"total" example:"42" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful upload. URL is
// the durable locator; Markdown is a ready-to-insert embed for it.
// Filename is the server-assigned stored name, opaque to clients.
type AttachmentUploadResponse struct {
	ID           string    `json:"id" example:"0f8fad5b-..." validate:"required"`
	URL          string    `json:"url" example:"/api/entries/e1/attachments/a1" validate:"required"`
	Markdown     string    `json:"markdown" example:"![photo.jpg](/api/entries/e1/attachments/a1)" validate:"required"`
	Filename     string    `json:"filename" example:"0f8fad5b.jpg"`
	OriginalName string    `json:"original_name" example:"photo.jpg"`
	MimeType     string    `json:"mime_type" example:"image/jpeg"`
	Size         int64     `json:"size_bytes" example:"12345"`
	CreatedAt    time.Time `json:"created_at"`
}

// HTMLResponse wraps a rendered entry preview.
type HTMLResponse struct {
	HTML string `json:"html" validate:"required"`
}
