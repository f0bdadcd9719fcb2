package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/dagaz/internal/apperr"
	"github.com/halvard/dagaz/internal/journal"
	"github.com/halvard/dagaz/internal/render"
)

// Handler holds API route handlers for entries.
type Handler struct {
	svc *journal.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *journal.Service) *Handler {
	return &Handler{svc: svc}
}

func entryInput(req EntryRequest) journal.EntryInput {
	in := journal.EntryInput{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Location: req.Location,
	}
	if req.EntryDate != nil {
		in.EntryDate = *req.EntryDate
	}
	return in
}

// ListEntries handles GET /api/entries.
//
//	@Summary		List entries with optional pagination and filtering
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(entry_date, updated_at)
//	@Success		200		{object}	EntryListResponse
//	@Security		BearerAuth
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	sort := q.Get("sort")

	items, total, err := h.svc.ListEntries(r.Context(), OwnerID(r), limit, offset, tag, sort)
	if err != nil {
		slog.Error("list entries failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	details := make([]EntryDetail, len(items))
	for i := range items {
		details[i] = toEntryDetail(&items[i])
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: details, Total: total})
}

// GetEntry handles GET /api/entries/{entryID}.
//
//	@Summary		Get a single entry by ID
//	@Tags			entries
//	@Produce		json
//	@Param			entryID	path		string	true	"Entry ID"
//	@Success		200		{object}	EntryDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entryID")
	entry, err := h.svc.GetEntry(r.Context(), OwnerID(r), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get entry failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, toEntryDetail(entry))
}

// CreateEntry handles POST /api/entries.
//
//	@Summary		Create a new entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EntryRequest	true	"Entry to create"
//	@Success		201		{object}	EntryDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	entry, err := h.svc.CreateEntry(r.Context(), OwnerID(r), entryInput(req))
	if err != nil {
		slog.Error("create entry failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDetail(entry))
}

// UpdateEntry handles PUT /api/entries/{entryID}.
//
//	@Summary		Update an entry with optimistic concurrency
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			entryID		path	string			true	"Entry ID"
//	@Param			If-Match	header	string			false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	EntryRequest	true	"Updated entry"
//	@Success		200			{object}	EntryDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID} [put]
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "entryID")
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	entry, err := h.svc.UpdateEntry(r.Context(), OwnerID(r), id, entryInput(req), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update entry failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, toEntryDetail(entry))
}

// DeleteEntry handles DELETE /api/entries/{entryID}. Deletion is soft by
// default; ?hard=true destroys the row and its attachments.
//
//	@Summary		Delete an entry
//	@Tags			entries
//	@Param			entryID	path	string	true	"Entry ID"
//	@Param			hard	query	bool	false	"Hard delete"
//	@Success		204		"Entry deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID} [delete]
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entryID")
	hard := r.URL.Query().Get("hard") == "true"
	if err := h.svc.DeleteEntry(r.Context(), OwnerID(r), id, hard); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("delete entry failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewEntry handles GET /api/entries/{entryID}/html.
//
//	@Summary		Render an entry's markdown to HTML
//	@Tags			entries
//	@Produce		json
//	@Param			entryID	path		string	true	"Entry ID"
//	@Success		200		{object}	HTMLResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{entryID}/html [get]
func (h *Handler) PreviewEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entryID")
	entry, err := h.svc.GetEntry(r.Context(), OwnerID(r), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("preview entry failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	html, err := render.HTML(entry.Content)
	if err != nil {
		slog.Error("render failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, HTMLResponse{HTML: html})
}
