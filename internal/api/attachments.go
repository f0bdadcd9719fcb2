package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/dagaz/internal/apperr"
	"github.com/halvard/dagaz/internal/attachment"
	"github.com/halvard/dagaz/internal/document"
)

// AttachmentHandler serves and accepts entry attachments.
type AttachmentHandler struct {
	svc *attachment.Service
}

// NewAttachmentHandler creates an attachment handler.
func NewAttachmentHandler(svc *attachment.Service) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload handles POST /api/entries/{entryID}/attachments
// (multipart/form-data, field "image").
//
//	@Summary		Upload an image attachment to an entry
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			entryID	path		string	true	"Entry ID"
//	@Param			image	formData	file	true	"Image file"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		404		{object}	errResponse
//	@Failure		413		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID}/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	maxBytes := h.svc.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'image' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	rec, err := h.svc.Create(r.Context(), OwnerID(r), entryID, attachment.Upload{
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Data:         data,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrUnsupportedType):
			writeJSON(w, http.StatusUnsupportedMediaType, errorBody("unsupported media type"))
		case errors.Is(err, apperr.ErrPayloadTooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file exceeds upload limit"))
		default:
			slog.Error("attachment upload failed",
				slog.String("entry_id", entryID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	url := attachment.Locator(entryID, rec.ID)
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		ID:           rec.ID,
		URL:          url,
		Markdown:     document.ImageMarkdown(rec.OriginalName, url),
		Filename:     rec.StoredFilename,
		OriginalName: rec.OriginalName,
		MimeType:     rec.MimeType,
		Size:         rec.SizeBytes,
		CreatedAt:    rec.CreatedAt,
	})
}

// Fetch handles GET /api/entries/{entryID}/attachments/{attachmentID}.
// Stored files are immutable under their ID, so successful responses are
// cacheable forever.
//
//	@Summary		Fetch an attachment's binary
//	@Tags			attachments
//	@Produce		octet-stream
//	@Param			entryID			path	string	true	"Entry ID"
//	@Param			attachmentID	path	string	true	"Attachment ID"
//	@Success		200	"Binary content"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID}/attachments/{attachmentID} [get]
func (h *AttachmentHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	attachmentID := chi.URLParam(r, "attachmentID")

	rc, rec, err := h.svc.Open(r.Context(), OwnerID(r), entryID, attachmentID)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrFileMissing):
			writeJSON(w, http.StatusNotFound, errorBodyCode("attachment binary missing", "file_missing"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("attachment fetch failed",
				slog.String("attachment_id", attachmentID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", rec.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("attachment stream interrupted",
			slog.String("attachment_id", attachmentID), slog.String("error", err.Error()))
	}
}

// Delete handles DELETE /api/entries/{entryID}/attachments/{attachmentID}.
//
//	@Summary		Delete an attachment
//	@Tags			attachments
//	@Param			entryID			path	string	true	"Entry ID"
//	@Param			attachmentID	path	string	true	"Attachment ID"
//	@Success		204	"Attachment deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID}/attachments/{attachmentID} [delete]
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	attachmentID := chi.URLParam(r, "attachmentID")

	if err := h.svc.Delete(r.Context(), OwnerID(r), entryID, attachmentID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("attachment delete failed",
				slog.String("attachment_id", attachmentID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
